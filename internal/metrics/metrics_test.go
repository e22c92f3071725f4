package metrics

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSnapshot_Empty(t *testing.T) {
	m := New()
	s := m.Snapshot()
	if s.Uploads != 0 || s.Queries != 0 || s.Resets != 0 {
		t.Errorf("fresh metrics = %+v", s)
	}
	if s.AvgUploadMS != 0 || s.AvgQueryMS != 0 {
		t.Errorf("averages should be zero with no samples: %+v", s)
	}
}

func TestRecordUpload(t *testing.T) {
	m := New()
	m.RecordUpload(100*time.Millisecond, nil)
	m.RecordUpload(300*time.Millisecond, nil)
	m.RecordUpload(0, errors.New("boom"))

	s := m.Snapshot()
	if s.Uploads != 2 {
		t.Errorf("uploads = %d", s.Uploads)
	}
	if s.UploadErrors != 1 {
		t.Errorf("upload errors = %d", s.UploadErrors)
	}
	if s.AvgUploadMS != 200 {
		t.Errorf("avg upload ms = %v", s.AvgUploadMS)
	}
}

func TestRecordQuery(t *testing.T) {
	m := New()
	m.RecordQuery(50*time.Millisecond, false, nil)
	m.RecordQuery(50*time.Millisecond, true, nil)
	m.RecordQuery(0, false, errors.New("boom"))

	s := m.Snapshot()
	if s.Queries != 2 || s.QueriesNoMatch != 1 || s.QueryErrors != 1 {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestRecordReset(t *testing.T) {
	m := New()
	m.RecordReset()
	m.RecordReset()
	if got := m.Snapshot().Resets; got != 2 {
		t.Errorf("resets = %d", got)
	}
}

func TestJSON(t *testing.T) {
	m := New()
	m.RecordQuery(time.Millisecond, false, nil)

	data, err := m.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Queries != 1 {
		t.Errorf("queries = %d", s.Queries)
	}
}

func TestConcurrentRecording(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordUpload(time.Millisecond, nil)
			m.RecordQuery(time.Millisecond, false, nil)
			m.RecordReset()
		}()
	}
	wg.Wait()

	s := m.Snapshot()
	if s.Uploads != 50 || s.Queries != 50 || s.Resets != 50 {
		t.Errorf("snapshot = %+v", s)
	}
}
