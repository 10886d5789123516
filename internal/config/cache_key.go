package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ResultsKey returns the list key holding archived results for a session.
func (r *CacheKeyStruct) ResultsKey(sessionPrefix string) string {
	return fmt.Sprintf("quiz:%s:results", sessionPrefix)
}

// EventsChannel returns the Redis PubSub channel for client result events.
func (r *CacheKeyStruct) EventsChannel() string {
	return "quiz:events"
}

var CacheKey = NewCacheKeyStruct()
