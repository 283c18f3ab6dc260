package impl

import (
	"encoding/json"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rebrowser/syncgen/pkg/errors"
	"github.com/rebrowser/syncgen/pkg/logger"
)

// message is the wire format between a Connection and its Target. Replies
// carry the id of the request; events carry the guid of the object they
// are addressed to.
type message struct {
	ID     string         `json:"id,omitempty"`
	GUID   string         `json:"guid,omitempty"`
	Method string         `json:"method,omitempty"`
	Params map[string]any `json:"params,omitempty"`
	Result map[string]any `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Target is an in-process stand-in for a browser process. It handles every
// message on its own goroutine after a fixed latency and answers through
// the callback installed by the connection.
type Target struct {
	latency time.Duration
	log     *zap.SugaredLogger

	mu     sync.Mutex
	out    func([]byte)
	pages  map[string]*targetPage
	nextID int
	closed bool
}

type targetPage struct {
	url    string
	title  string
	closed bool
}

// NewTarget returns a target answering after latency.
func NewTarget(latency time.Duration) *Target {
	return &Target{
		latency: latency,
		log:     logger.Named("target"),
		pages:   make(map[string]*targetPage),
	}
}

func (t *Target) attach(out func([]byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.out = out
}

// deliver accepts one encoded message.
func (t *Target) deliver(data []byte) {
	go t.handle(data)
}

func (t *Target) handle(data []byte) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.log.Warnw("dropping malformed message", logger.FieldError, err)
		return
	}
	time.Sleep(t.latency)

	t.mu.Lock()
	result, events, err := t.call(msg)
	out := t.out
	t.mu.Unlock()

	reply := message{ID: msg.ID, Result: result}
	if err != nil {
		reply.Error = err.Error()
	}
	for _, ev := range events {
		t.send(out, ev)
	}
	t.send(out, reply)
}

func (t *Target) send(out func([]byte), msg message) {
	data, err := json.Marshal(msg)
	if err != nil {
		t.log.Warnw("dropping unencodable message", logger.FieldError, err)
		return
	}
	if out != nil {
		out(data)
	}
}

// call executes one request. Called with t.mu held.
func (t *Target) call(msg message) (map[string]any, []message, error) {
	if msg.Method == "launch" {
		t.closed = false
		return map[string]any{"guid": "browser", "version": "1.0-fake"}, nil, nil
	}
	if t.closed {
		return nil, nil, errors.New("target closed")
	}

	if msg.GUID == "browser" {
		switch msg.Method {
		case "newPage":
			return map[string]any{"guid": t.newPage()}, nil, nil
		case "close":
			t.closed = true
			for _, p := range t.pages {
				p.closed = true
			}
			return map[string]any{}, nil, nil
		}
		return nil, nil, errors.Newf("unknown browser method %q", msg.Method)
	}

	p, ok := t.pages[msg.GUID]
	if !ok {
		return nil, nil, errors.Newf("unknown object %q", msg.GUID)
	}
	if p.closed {
		return nil, nil, errors.New("target page closed")
	}
	selector, _ := msg.Params["selector"].(string)

	switch msg.Method {
	case "goto":
		url, _ := msg.Params["url"].(string)
		if strings.HasPrefix(url, "http://unreachable") {
			return nil, nil, errors.Newf("net::ERR_NAME_NOT_RESOLVED at %s", url)
		}
		p.url = url
		p.title = path.Base(strings.TrimSuffix(url, "/"))
		status := 200
		if strings.Contains(url, "/missing") {
			status = 404
		}
		headers := map[string]any{"content-type": "text/html"}
		if referer, ok := msg.Params["referer"].(string); ok {
			headers["referer"] = referer
		}
		return map[string]any{
			"url":     url,
			"status":  status,
			"headers": headers,
			"body":    "<title>" + p.title + "</title>",
		}, nil, nil

	case "title":
		return map[string]any{"value": p.title}, nil, nil

	case "evaluate":
		expression, _ := msg.Params["expression"].(string)
		switch expression {
		case "document.title":
			return map[string]any{"value": p.title}, nil, nil
		case "location.href":
			return map[string]any{"value": p.url}, nil, nil
		}
		return map[string]any{"value": msg.Params["arg"]}, nil, nil

	case "count":
		return map[string]any{"value": len(p.query(selector))}, nil, nil

	case "textContent":
		matches := p.query(selector)
		if len(matches) == 0 {
			return map[string]any{}, nil, nil
		}
		return map[string]any{"value": matches[0]}, nil, nil

	case "click":
		matches := p.query(selector)
		if len(matches) == 0 {
			return nil, nil, errors.Newf("no element matches selector %q", selector)
		}
		if strings.HasPrefix(selector, "a[target=_blank]") {
			popup := t.newPage()
			return map[string]any{}, []message{{GUID: msg.GUID, Method: "popup", Params: map[string]any{"guid": popup}}}, nil
		}
		return map[string]any{}, nil, nil

	case "close":
		p.closed = true
		return map[string]any{}, nil, nil
	}
	return nil, nil, errors.Newf("unknown page method %q", msg.Method)
}

func (t *Target) newPage() string {
	t.nextID++
	guid := "page-" + strconv.Itoa(t.nextID)
	t.pages[guid] = &targetPage{url: "about:blank"}
	return guid
}

// query evaluates a selector chain such as "li >> nth=1" or
// "li >> has-text=two" against the fixed document every loaded page shows.
func (p *targetPage) query(selector string) []string {
	if p.url == "about:blank" {
		return nil
	}
	parts := strings.Split(selector, " >> ")
	var matches []string
	switch parts[0] {
	case "li":
		matches = []string{"one", "two", "three"}
	case "h1":
		matches = []string{p.title}
	case "a[target=_blank]":
		matches = []string{"Open popup"}
	}
	for _, part := range parts[1:] {
		switch {
		case strings.HasPrefix(part, "nth="):
			n, err := strconv.Atoi(strings.TrimPrefix(part, "nth="))
			if err != nil || n < 0 || n >= len(matches) {
				return nil
			}
			matches = matches[n : n+1]
		case strings.HasPrefix(part, "has-text="):
			text := strings.TrimPrefix(part, "has-text=")
			var kept []string
			for _, m := range matches {
				if strings.Contains(m, text) {
					kept = append(kept, m)
				}
			}
			matches = kept
		}
	}
	return matches
}
