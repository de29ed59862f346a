package api

import (
	"bytes"
	"encoding/json"
	"time"
)

// localLayouts 后端返回的不带时区的日期格式
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Time 同时解析 RFC 3339 与不带时区的本地时间，后者按 UTC 处理
type Time struct {
	time.Time
}

func NewTime(t time.Time) Time {
	return Time{Time: t}
}

func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*t = Time{}
		return nil
	}

	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = v
		return nil
	}

	var lastErr error
	for _, layout := range localLayouts {
		v, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			t.Time = v
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}
