package erp

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kolo/xmlrpc"
)

// fakeERP is an httptest XML-RPC endpoint speaking the common/object services.
type fakeERP struct {
	mu        sync.Mutex
	uid       int64
	fault     string
	records   []any
	authDelay time.Duration
	authCalls int
	objBodies []string
}

func newFakeERP(t *testing.T, uid int64) (*fakeERP, *httptest.Server) {
	t.Helper()
	fake := &fakeERP{uid: uid, records: []any{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return fake, srv
}

func (f *fakeERP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "text/xml")
	switch r.URL.Path {
	case commonPath:
		f.mu.Lock()
		f.authCalls++
		uid := f.uid
		delay := f.authDelay
		f.mu.Unlock()
		if delay > 0 {
			time.Sleep(delay)
		}
		if uid == 0 {
			_, _ = w.Write(xmlrpcResponse(false))
			return
		}
		_, _ = w.Write(xmlrpcResponse(uid))
	case objectPath:
		f.mu.Lock()
		f.objBodies = append(f.objBodies, string(body))
		fault := f.fault
		records := f.records
		f.mu.Unlock()
		if fault != "" {
			_, _ = w.Write(xmlrpcFault(fault))
			return
		}
		_, _ = w.Write(xmlrpcResponse(records))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeERP) auths() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authCalls
}

func (f *fakeERP) lastBody() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.objBodies) == 0 {
		return ""
	}
	return f.objBodies[len(f.objBodies)-1]
}

func (f *fakeERP) set(fn func(f *fakeERP)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// xmlrpcResponse reuses the library's value encoder and rewraps the call
// envelope as a methodResponse.
func xmlrpcResponse(v any) []byte {
	body, err := xmlrpc.EncodeMethodCall("reply", v)
	if err != nil {
		panic(err)
	}
	out := strings.Replace(string(body), "<methodName>reply</methodName>", "", 1)
	out = strings.Replace(out, "<methodCall>", "<methodResponse>", 1)
	out = strings.Replace(out, "</methodCall>", "</methodResponse>", 1)
	return []byte(out)
}

func xmlrpcFault(msg string) []byte {
	return []byte(`<?xml version="1.0"?><methodResponse><fault><value><struct>` +
		`<member><name>faultCode</name><value><int>1</int></value></member>` +
		`<member><name>faultString</name><value><string>` + msg + `</string></value></member>` +
		`</struct></value></fault></methodResponse>`)
}
