package model

import "github.com/golang-jwt/jwt/v5"

// RecruiterClaims are JWT claims for recruiter authentication
type RecruiterClaims struct {
	RecruiterID string `json:"recruiterId"`
	jwt.RegisteredClaims
}

// CandidateClaims are JWT claims for session-scoped candidate tokens
type CandidateClaims struct {
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for recruiter login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token       string `json:"token"`
	RecruiterID string `json:"recruiterId"`
}
