package web

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/JonMunkholm/sortly/internal/config"
	"github.com/JonMunkholm/sortly/internal/core"
)

const formType = "application/x-www-form-urlencoded"

// browser replays the client cookie the way a browser would.
type browser struct {
	t       *testing.T
	s       *Server
	cookies []*http.Cookie
}

func (b *browser) get(path string) (int, string, http.Header) {
	b.t.Helper()
	rec := b.s.do(b.t, request{method: http.MethodGet, path: path, cookies: b.cookies})
	b.keep(rec.Result().Cookies())
	return rec.Code, rec.Body.String(), rec.Header()
}

func (b *browser) post(path string, form url.Values) (int, string, http.Header) {
	b.t.Helper()
	rec := b.s.do(b.t, request{method: http.MethodPost, path: path, body: form.Encode(), ctype: formType, cookies: b.cookies})
	b.keep(rec.Result().Cookies())
	return rec.Code, rec.Body.String(), rec.Header()
}

func (b *browser) keep(cookies []*http.Cookie) {
	for _, c := range cookies {
		if c.Name == clientCookie {
			b.cookies = []*http.Cookie{c}
		}
	}
}

// paste submits text and returns the dataset path it redirects to.
func (b *browser) paste(text, label string) string {
	b.t.Helper()
	code, body, h := b.post("/paste", url.Values{"text": {text}, "label": {label}})
	if code != http.StatusSeeOther {
		b.t.Fatalf("paste status = %d: %s", code, body)
	}
	loc := h.Get("Location")
	if !strings.HasPrefix(loc, "/h/") {
		b.t.Fatalf("paste redirected to %q", loc)
	}
	return loc
}

func newBrowser(t *testing.T, s *Server) *browser {
	return &browser{t: t, s: s}
}

func TestHomePage(t *testing.T) {
	b := newBrowser(t, newTestServer(t))
	code, body, _ := b.get("/")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	for _, want := range []string{"Paste your data", "Nothing yet."} {
		if !strings.Contains(body, want) {
			t.Errorf("home page missing %q", want)
		}
	}
	if len(b.cookies) != 1 {
		t.Error("home page did not issue a client cookie")
	}
}

func TestPasteFlow(t *testing.T) {
	s := newTestServer(t)
	b := newBrowser(t, s)

	path := b.paste("Name,Age\nAlice,30\nBob,25\nCara,41", "Team")

	code, body, _ := b.get(path)
	if code != http.StatusOK {
		t.Fatalf("dataset page status = %d", code)
	}
	for _, want := range []string{"Team", "Alice", "Cara"} {
		if !strings.Contains(body, want) {
			t.Errorf("dataset page missing %q", want)
		}
	}

	_, home, _ := b.get("/")
	if !strings.Contains(home, "Team") || strings.Contains(home, "Nothing yet.") {
		t.Error("home page does not list the new dataset")
	}

	// Age is not sorted yet, so one toggle adds it ascending and a second flips it.
	for i, want := range []core.Direction{core.Asc, core.Desc} {
		code, _, h := b.post(path+"/toggle", url.Values{"column": {"Age"}})
		if code != http.StatusSeeOther || h.Get("Location") != path {
			t.Fatalf("toggle %d: status %d location %q", i+1, code, h.Get("Location"))
		}
		rules := savedRules(t, b, path)
		if len(rules) != 2 || rules[1].Column != "Age" || rules[1].Direction != want {
			t.Errorf("after toggle %d rules = %+v", i+1, rules)
		}
	}

	code, _, _ = b.post(path+"/rules/0/delete", nil)
	if code != http.StatusSeeOther {
		t.Fatalf("remove rule status = %d", code)
	}
	rules := savedRules(t, b, path)
	if len(rules) != 1 || rules[0].Column != "Age" || rules[0].Type != core.SortNumeric {
		t.Fatalf("after remove rules = %+v", rules)
	}

	_, body, _ = b.get(path)
	if strings.Index(body, "Cara") > strings.Index(body, "Bob") {
		t.Error("dataset page is not sorted by age descending")
	}

	code, _, _ = b.post(path+"/rules/0", url.Values{"column": {"Name"}, "direction": {"asc"}, "type": {"alpha"}})
	if code != http.StatusSeeOther {
		t.Fatalf("update rule status = %d", code)
	}
	if rules := savedRules(t, b, path); rules[0].Column != "Name" {
		t.Errorf("after update rules = %+v", rules)
	}

	code, _, _ = b.post(path+"/rules/0", url.Values{"column": {"Name"}, "direction": {"sideways"}, "type": {"alpha"}})
	if code != http.StatusUnprocessableEntity {
		t.Errorf("invalid rule update status = %d", code)
	}

	b.post(path+"/label", url.Values{"label": {"Renamed"}})
	if _, body, _ := b.get(path); !strings.Contains(body, "Renamed") {
		t.Error("label change not shown")
	}

	code, _, h := b.post(path+"/delete", nil)
	if code != http.StatusSeeOther || h.Get("Location") != "/" {
		t.Fatalf("delete status %d location %q", code, h.Get("Location"))
	}
	if code, _, _ := b.get(path); code != http.StatusNotFound {
		t.Errorf("deleted dataset status = %d, want 404", code)
	}
}

// savedEntry reads the dataset at path from the browser's history.
func savedEntry(t *testing.T, b *browser, path string) core.HistoryEntry {
	t.Helper()
	id := strings.TrimPrefix(path, "/h/")
	entry, err := b.s.historyFor(withClient(b)).Get(context.Background(), id)
	if err != nil {
		t.Fatalf("history get: %v", err)
	}
	return entry
}

func savedRules(t *testing.T, b *browser, path string) []core.SortRule {
	t.Helper()
	return savedEntry(t, b, path).SortRules
}

func withClient(b *browser) *http.Request {
	r, _ := http.NewRequest(http.MethodGet, "/", nil)
	if len(b.cookies) > 0 {
		r = r.WithContext(context.WithValue(r.Context(), clientKey{}, b.cookies[0].Value))
	}
	return r
}

func TestPaste_Label(t *testing.T) {
	b := newBrowser(t, newTestServer(t))

	tests := []struct {
		name      string
		label     string
		want      string
		wantStart string
	}{
		{name: "given", label: "  Q3 budget ", want: "Q3 budget"},
		{name: "default", label: "", wantStart: "Sort — "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := savedEntry(t, b, b.paste("a,b\n1,2", tt.label))
			if tt.want != "" && entry.Label != tt.want {
				t.Errorf("label = %q, want %q", entry.Label, tt.want)
			}
			if tt.wantStart != "" && !strings.HasPrefix(entry.Label, tt.wantStart) {
				t.Errorf("label = %q, want prefix %q", entry.Label, tt.wantStart)
			}
		})
	}
}

func TestPasteErrors(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantStatus int
		wantCode   string
	}{
		{name: "blank", text: "  \n\t", wantStatus: http.StatusUnprocessableEntity, wantCode: "PARSE001"},
		{name: "too large", text: strings.Repeat("x", 200<<10), wantStatus: http.StatusRequestEntityTooLarge, wantCode: "PARSE002"},
	}

	s := newTestServer(t, func(c *config.Config) { c.Input.MaxBytes = 1024 })
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBrowser(t, s)
			code, body, _ := b.post("/paste", url.Values{"text": {tt.text}})
			if code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", code, tt.wantStatus)
			}
			if !strings.Contains(body, tt.wantCode) || !strings.Contains(body, "Paste your data") {
				t.Errorf("error page missing code %s or paste form", tt.wantCode)
			}
		})
	}
}

func TestHistoryIsPerClient(t *testing.T) {
	s := newTestServer(t)
	alice := newBrowser(t, s)
	bob := newBrowser(t, s)

	path := alice.paste("a\n1", "Alice's")
	bob.get("/")

	if code, _, _ := bob.get(path); code != http.StatusNotFound {
		t.Errorf("other client opened dataset: status %d", code)
	}
	if _, body, _ := bob.get("/"); !strings.Contains(body, "Nothing yet.") {
		t.Error("other client sees a history entry")
	}

	if code, _, _ := alice.post("/history/clear", nil); code != http.StatusSeeOther {
		t.Fatalf("clear status = %d", code)
	}
	if _, body, _ := alice.get("/"); !strings.Contains(body, "Nothing yet.") {
		t.Error("history not cleared")
	}
}

func TestShareFlow(t *testing.T) {
	s := newTestServer(t)
	sender := newBrowser(t, s)

	path := sender.paste("Name\tScore\n<b>Eve</b>\t7\nDan\t12", "Scores")
	sender.post(path+"/toggle", url.Values{"column": {"Score"}})

	code, _, h := sender.post(path+"/share", nil)
	if code != http.StatusSeeOther || !strings.HasPrefix(h.Get("Location"), "/s/") {
		t.Fatalf("share status %d location %q", code, h.Get("Location"))
	}
	link := h.Get("Location")
	token := strings.TrimPrefix(link, "/s/")

	viewer := newBrowser(t, s)
	code, body, _ := viewer.get(link)
	if code != http.StatusOK {
		t.Fatalf("share view status = %d", code)
	}
	for _, want := range []string{"Scores", "Sorted by", "Open in Sortly", "&lt;b&gt;Eve&lt;/b&gt;"} {
		if !strings.Contains(body, want) {
			t.Errorf("share view missing %q", want)
		}
	}
	if strings.Contains(body, "<b>Eve</b>") {
		t.Error("cell content was not escaped")
	}

	code, _, h = viewer.post("/import", url.Values{"token": {token}})
	if code != http.StatusSeeOther || !strings.HasPrefix(h.Get("Location"), "/h/") {
		t.Fatalf("import status %d location %q", code, h.Get("Location"))
	}
	if h.Get("Location") == path {
		t.Error("import reused the sender's dataset id")
	}
	rules := savedRules(t, viewer, h.Get("Location"))
	if len(rules) != 2 || rules[1].Column != "Score" {
		t.Errorf("imported rules = %+v", rules)
	}
}

func TestShareViewErrors(t *testing.T) {
	s := newTestServer(t)
	b := newBrowser(t, s)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "!!!"},
		{"not zlib", "aGVsbG8gd29ybGQ"},
		{"truncated", "eJyrVkrOzy0oSi0uBgAWHQP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body, _ := b.get("/s/" + url.PathEscape(tt.token))
			if code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", code)
			}
			if !strings.Contains(body, "This link can't be opened") || !strings.Contains(body, "SHARE001") {
				t.Errorf("share error page body = %s", body)
			}
		})
	}

	code, body, _ := b.post("/import", url.Values{"token": {"nope"}})
	if code != http.StatusBadRequest || !strings.Contains(body, "SHARE001") {
		t.Errorf("import bad token status %d", code)
	}
}

func TestStaticAssets(t *testing.T) {
	b := newBrowser(t, newTestServer(t))
	code, body, h := b.get("/static/sortly.css")
	if code != http.StatusOK || body == "" {
		t.Fatalf("status = %d", code)
	}
	if !strings.HasPrefix(h.Get("Content-Type"), "text/css") {
		t.Errorf("Content-Type = %q", h.Get("Content-Type"))
	}
}
