package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamPaperKey returns the cache key for an exam's student-facing paper.
func (r *CacheKeyStruct) ExamPaperKey(examID string) string {
	return fmt.Sprintf("exam:%s:paper", examID)
}

// SessionAnswersKey returns the cache key for a session's autosaved answers.
func (r *CacheKeyStruct) SessionAnswersKey(sessionID string) string {
	return fmt.Sprintf("session:%s:answers", sessionID)
}

// RevokedTokenKey returns the cache key marking an admin token as revoked.
func (r *CacheKeyStruct) RevokedTokenKey(jti string) string {
	return fmt.Sprintf("revoked:%s", jti)
}

var CacheKey = NewCacheKeyStruct()
