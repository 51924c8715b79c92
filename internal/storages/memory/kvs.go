package memory

import (
	"bytes"
	"sync"
	"time"
)

type TimeStampedData struct {
	Data      bytes.Buffer
	Timestamp time.Time
	Size      int
}

// KVS is supposed to be used for tests. It doesn't guarantee data safety!
type KVS struct {
	underlying *sync.Map
	timeNow    func() time.Time
}

func NewKVS(opts ...func(*KVS)) *KVS {
	s := &KVS{underlying: &sync.Map{}, timeNow: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func WithCustomTime(timeNow func() time.Time) func(*KVS) {
	return func(s *KVS) {
		s.timeNow = timeNow
	}
}

func (storage *KVS) Load(key string) (value TimeStampedData, exists bool) {
	valueInterface, ok := storage.underlying.Load(key)
	if !ok {
		return TimeStampedData{}, ok
	}
	return valueInterface.(TimeStampedData), ok
}

func (storage *KVS) Store(key string, value bytes.Buffer) {
	storage.underlying.Store(key, TimeStampedData{value, storage.timeNow(), value.Len()})
}

func (storage *KVS) Delete(key string) {
	storage.underlying.Delete(key)
}

func (storage *KVS) Range(callback func(key string, value TimeStampedData) bool) {
	storage.underlying.Range(func(iKey, iValue interface{}) bool {
		return callback(iKey.(string), iValue.(TimeStampedData))
	})
}

// Keys returns every stored key; handy in tests.
func (storage *KVS) Keys() []string {
	var keys []string
	storage.Range(func(key string, _ TimeStampedData) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}
