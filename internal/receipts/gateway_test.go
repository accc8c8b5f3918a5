package receipts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
)

type memResultStore struct {
	mu      sync.Mutex
	results map[string]*entity.ReceiptResult
	deletes int
}

func newMemResultStore() *memResultStore {
	return &memResultStore{results: make(map[string]*entity.ReceiptResult)}
}

func storeKey(userID int64, receiptID string) string {
	return strconv.FormatInt(userID, 10) + "|" + receiptID
}

func (m *memResultStore) Get(_ context.Context, userID int64, receiptID string) (*entity.ReceiptResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results[storeKey(userID, receiptID)], nil
}

func (m *memResultStore) Put(_ context.Context, r *entity.ReceiptResult) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := storeKey(r.UserID, r.ReceiptID)
	if _, ok := m.results[k]; ok {
		return false, nil
	}
	m.results[k] = r
	return true, nil
}

func (m *memResultStore) Delete(_ context.Context, userID int64, receiptID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.results, storeKey(userID, receiptID))
	return nil
}

type fakeGateway struct {
	mu           sync.Mutex
	uploadStatus int
	uploadErr    error
	uploaded     any

	fetchStatus int
	fetchBody   []byte
	fetchErr    error
	fetches     atomic.Int32
	params      map[string]string
}

func (f *fakeGateway) Upload(_ context.Context, _ string, payload any) (int, error) {
	f.uploaded = payload
	return f.uploadStatus, f.uploadErr
}

func (f *fakeGateway) FetchResult(_ context.Context, _ string, params map[string]string) (int, []byte, error) {
	f.fetches.Add(1)
	f.mu.Lock()
	f.params = params
	f.mu.Unlock()
	return f.fetchStatus, f.fetchBody, f.fetchErr
}

type countingClassifier struct {
	calls atomic.Int32
	err   error
}

func (c *countingClassifier) Classify(context.Context, int64, ReceiptPayload) ([]entity.PantryItemDraft, error) {
	c.calls.Add(1)
	return nil, c.err
}

const okBody = `{"Vendor":"FairPrice","Date":"01/06/2025","Total":"12.30","Items":[{"ITEM":"Fresh Milk"}]}`

func TestUpload(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		err     error
		wantErr bool
	}{
		{"created", http.StatusCreated, nil, false},
		{"ok", http.StatusOK, nil, false},
		{"rejected", http.StatusBadRequest, nil, true},
		{"network", 0, errors.New("dial tcp: refused"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{uploadStatus: tt.status, uploadErr: tt.err}
			svc := NewGatewayService(gw, newMemResultStore(), &countingClassifier{}, "http://gw/upload", "http://gw/result", quietLogger())

			id, err := svc.Upload(context.Background(), 9, []byte("jpeg-bytes"))
			if tt.wantErr {
				if !errors.Is(err, ErrUploadFailed) {
					t.Fatalf("err = %v, want ErrUploadFailed", err)
				}
				var terr *GatewayTransportError
				if !errors.As(err, &terr) {
					t.Errorf("err = %v, want a GatewayTransportError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Upload: %v", err)
			}
			if !strings.HasSuffix(id, ".jpg") {
				t.Errorf("id = %q", id)
			}
			req := gw.uploaded.(uploadRequest)
			if req.UserID != "9" || req.ReceiptID != id || req.ImageBase64 != base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")) {
				t.Errorf("payload = %+v", req)
			}
		})
	}
}

func TestUpload_NotConfigured(t *testing.T) {
	svc := NewGatewayService(&fakeGateway{}, newMemResultStore(), &countingClassifier{}, "", "", quietLogger())
	if _, err := svc.Upload(context.Background(), 1, nil); !errors.Is(err, ErrGatewayNotConfigured) {
		t.Fatalf("err = %v", err)
	}
}

func TestPoll_States(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		err    error
		want   constants.ReceiptStatus
	}{
		{"pending", http.StatusAccepted, "", nil, constants.ReceiptStatusPending},
		{"processed", http.StatusOK, okBody, nil, constants.ReceiptStatusProcessed},
		{"not found", http.StatusNotFound, "", nil, constants.ReceiptStatusError},
		{"bad json", http.StatusOK, "<html>", nil, constants.ReceiptStatusError},
		{"network", 0, "", errors.New("timeout"), constants.ReceiptStatusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{fetchStatus: tt.status, fetchBody: []byte(tt.body), fetchErr: tt.err}
			store := newMemResultStore()
			cls := &countingClassifier{}
			svc := NewGatewayService(gw, store, cls, "http://gw/upload", "http://gw/result", quietLogger())

			got, err := svc.Poll(context.Background(), 5, "r1.jpg")
			if got != tt.want {
				t.Fatalf("Poll = %s (%v), want %s", got, err, tt.want)
			}
			if (got == constants.ReceiptStatusError) != (err != nil) {
				t.Errorf("status %s with err %v", got, err)
			}
			stored, _ := store.Get(context.Background(), 5, "r1.jpg")
			if (got == constants.ReceiptStatusProcessed) != (stored != nil) {
				t.Errorf("stored = %v for status %s", stored, got)
			}
			if gw.params["user_id"] != "5" || gw.params["receipt_id"] != "r1.jpg" {
				t.Errorf("params = %v", gw.params)
			}
		})
	}
}

func TestPoll_StoresVendorAndTotal(t *testing.T) {
	store := newMemResultStore()
	svc := NewGatewayService(&fakeGateway{fetchStatus: http.StatusOK, fetchBody: []byte(okBody)}, store, &countingClassifier{}, "u", "r", quietLogger())

	if _, err := svc.Poll(context.Background(), 1, "a.jpg"); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	res, _ := store.Get(context.Background(), 1, "a.jpg")
	if res.Vendor != "FairPrice" || res.Total != "12.30" || !json.Valid(res.Result) {
		t.Errorf("stored = %+v", res)
	}
}

func TestPoll_IdempotentAcrossRepeatedPolls(t *testing.T) {
	sink := &recordingSink{}
	classifier := newTestClassifier(staticReply(`[{"ITEM":"Fresh Milk","SUBCATEGORY":"Fresh Milk","QUANTITY":"1"}]`, nil), sink)
	gw := &fakeGateway{fetchStatus: http.StatusOK, fetchBody: []byte(okBody)}
	svc := NewGatewayService(gw, newMemResultStore(), classifier, "u", "r", quietLogger())

	for i := 0; i < 5; i++ {
		got, err := svc.Poll(context.Background(), 11, "same.jpg")
		if err != nil || got != constants.ReceiptStatusProcessed {
			t.Fatalf("poll %d = %s, %v", i, got, err)
		}
	}
	if sink.calls != 1 {
		t.Errorf("sink calls = %d, want 1", sink.calls)
	}
	if n := gw.fetches.Load(); n != 1 {
		t.Errorf("gateway fetches = %d, want 1", n)
	}
}

func TestPoll_ConcurrentPollsClassifyOnce(t *testing.T) {
	cls := &countingClassifier{}
	gw := &fakeGateway{fetchStatus: http.StatusOK, fetchBody: []byte(okBody)}
	svc := NewGatewayService(gw, newMemResultStore(), cls, "u", "r", quietLogger())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, err := svc.Poll(context.Background(), 2, "race.jpg"); got != constants.ReceiptStatusProcessed {
				t.Errorf("Poll = %s, %v", got, err)
			}
		}()
	}
	wg.Wait()
	if n := cls.calls.Load(); n != 1 {
		t.Errorf("classifier calls = %d, want 1", n)
	}
}

func TestPoll_ClassificationFailureReleasesResult(t *testing.T) {
	store := newMemResultStore()
	cls := &countingClassifier{err: &ClassificationError{Reason: "parse reply"}}
	svc := NewGatewayService(&fakeGateway{fetchStatus: http.StatusOK, fetchBody: []byte(okBody)}, store, cls, "u", "r", quietLogger())

	got, err := svc.Poll(context.Background(), 3, "x.jpg")
	var cerr *ClassificationError
	if got != constants.ReceiptStatusError || !errors.As(err, &cerr) {
		t.Fatalf("Poll = %s, %v", got, err)
	}
	if stored, _ := store.Get(context.Background(), 3, "x.jpg"); stored != nil {
		t.Fatalf("result kept after failed classification")
	}

	cls.err = nil
	if got, _ := svc.Poll(context.Background(), 3, "x.jpg"); got != constants.ReceiptStatusProcessed {
		t.Fatalf("retry = %s", got)
	}
	if n := cls.calls.Load(); n != 2 {
		t.Errorf("classifier calls = %d, want 2", n)
	}
}

func TestHTTPGateway(t *testing.T) {
	var gotUpload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			_ = json.NewDecoder(r.Body).Decode(&gotUpload)
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			if r.URL.Query().Get("receipt_id") == "done.jpg" {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(okBody))
				return
			}
			w.WriteHeader(http.StatusAccepted)
		}
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.Client(), quietLogger())
	status, err := gw.Upload(context.Background(), srv.URL+"/upload", uploadRequest{UserID: "1", ReceiptID: "a.jpg", ImageBase64: "AA=="})
	if err != nil || status != http.StatusCreated {
		t.Fatalf("Upload = %d, %v", status, err)
	}
	if gotUpload["receipt_id"] != "a.jpg" || gotUpload["image_base64"] != "AA==" {
		t.Errorf("upload body = %v", gotUpload)
	}

	status, body, err := gw.FetchResult(context.Background(), srv.URL+"/result", map[string]string{"user_id": "1", "receipt_id": "done.jpg"})
	if err != nil || status != http.StatusOK || string(body) != okBody {
		t.Fatalf("FetchResult = %d, %q, %v", status, body, err)
	}
	status, _, _ = gw.FetchResult(context.Background(), srv.URL+"/result", map[string]string{"receipt_id": "wip.jpg"})
	if status != http.StatusAccepted {
		t.Errorf("pending status = %d", status)
	}
}
