package model

// Impression classes the classifier is trained on
const (
	ClassProfessional   = "professional"
	ClassEngaged        = "engaged"
	ClassConfident      = "confident"
	ClassDistracted     = "distracted"
	ClassTired          = "tired"
	ClassFatigued       = "fatigued"
	ClassNervous        = "nervous"
	ClassAnxious        = "anxious"
	ClassUnprofessional = "unprofessional"
)

// Prediction is one class score from the impression classifier
type Prediction struct {
	Class      string  `json:"class" bson:"class"`
	Confidence float64 `json:"confidence" bson:"confidence"` // 0-1
}

// ImpressionClassification is the classifier output for one snapshot
type ImpressionClassification struct {
	Top         string       `json:"top" bson:"top"`
	Confidence  float64      `json:"confidence" bson:"confidence"`
	Predictions []Prediction `json:"predictions" bson:"predictions"`
	TimestampMS int64        `json:"timestampMs" bson:"timestampMs"`
}

// CombinedAnalytics merges classifier output and frame signals into
// four 0-100 impression scores
type CombinedAnalytics struct {
	Professionalism float64  `json:"professionalism" bson:"professionalism"`
	Engagement      float64  `json:"engagement" bson:"engagement"`
	Alertness       float64  `json:"alertness" bson:"alertness"`
	Confidence      float64  `json:"confidence" bson:"confidence"`
	Distractions    []string `json:"distractions" bson:"distractions"`
	TimestampMS     int64    `json:"timestampMs" bson:"timestampMs"`
}
