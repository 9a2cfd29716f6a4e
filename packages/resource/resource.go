package resource

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/rajeshsegu/resource-go/packages/dispatch"
	"github.com/rajeshsegu/resource-go/packages/transport"
)

// DefaultTimeout applies when no explicit timeout is configured.
const DefaultTimeout = 30 * time.Second

// Handler receives the outcome of a dispatched request: a success flag
// and the decoded JSON body. Failures deliver a body holding a single
// "ErrorMessage" string.
type Handler func(success bool, body map[string]any)

// Doer executes a fully-formed HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Resource is a mutable, chainable description of one HTTP request and,
// after Send, the state of its dispatch. Builder methods mutate the
// receiver and return it.
type Resource struct {
	method   string
	url      string
	params   map[string]string
	form     map[string]string
	parts    map[string][]byte
	headers  map[string]string
	user     string
	password string
	hasAuth  bool
	timeout  time.Duration
	priority dispatch.Priority
	handler  Handler

	client Doer
	logger *zap.Logger
	loop   *dispatch.Loop

	queue     *dispatch.Queue
	cancelled atomic.Bool

	mu       sync.Mutex
	complete bool
	success  bool
	status   int
	body     map[string]any
}

func newResource(method, url string) *Resource {
	return &Resource{
		method:   method,
		url:      url,
		params:   make(map[string]string),
		form:     make(map[string]string),
		parts:    make(map[string][]byte),
		headers:  make(map[string]string),
		timeout:  DefaultTimeout,
		priority: dispatch.PriorityNormal,
		logger:   zap.NewNop(),
	}
}

// Get starts a GET request for url.
func Get(url string) *Resource {
	return newResource(http.MethodGet, url)
}

// Post starts a POST request for url.
func Post(url string) *Resource {
	return newResource(http.MethodPost, url)
}

// Put starts a PUT request for url.
func Put(url string) *Resource {
	return newResource(http.MethodPut, url)
}

// Delete starts a DELETE request for url.
func Delete(url string) *Resource {
	return newResource(http.MethodDelete, url)
}

// Head starts a HEAD request for url.
func Head(url string) *Resource {
	return newResource(http.MethodHead, url)
}

// Basic configures HTTP basic authentication. The Authorization header
// it produces is applied before explicit headers, so a Header call that
// sets Authorization wins over Basic.
func (r *Resource) Basic(user, password string) *Resource {
	r.user = user
	r.password = password
	r.hasAuth = true
	return r
}

// Header sets an explicit request header.
func (r *Resource) Header(name, value string) *Resource {
	r.headers[name] = value
	return r
}

// Param sets one query parameter.
func (r *Resource) Param(name, value string) *Resource {
	r.params[name] = value
	return r
}

// Params merges mapping into the query parameters.
func (r *Resource) Params(mapping map[string]string) *Resource {
	for name, value := range mapping {
		r.params[name] = value
	}
	return r
}

// Form sets one form field.
func (r *Resource) Form(name, value string) *Resource {
	r.form[name] = value
	return r
}

// Image attaches raw bytes as a binary part under the given field name.
// Empty data is ignored.
func (r *Resource) Image(data []byte, field string) *Resource {
	if len(data) == 0 {
		return r
	}
	r.parts[field] = data
	return r
}

// Timeout bounds the network call. The value is handed to the transport
// via the request context; it is not validated here.
func (r *Resource) Timeout(d time.Duration) *Resource {
	r.timeout = d
	return r
}

// Priority orders this request's unit of work on its queue.
func (r *Resource) Priority(p dispatch.Priority) *Resource {
	r.priority = p
	return r
}

// Response registers the handler invoked with the outcome. Send without
// a handler is legal; the decoded result is dropped and only the
// pollable outcome is recorded.
func (r *Resource) Response(handler Handler) *Resource {
	r.handler = handler
	return r
}

// Log emits a diagnostic message through the resource's logger, tagged
// with the request method and URL.
func (r *Resource) Log(message string) *Resource {
	r.logger.Info(message,
		zap.String("method", r.method),
		zap.String("url", r.url),
	)
	return r
}

// Client replaces the transport the request executes on. The default is
// the shared client from the transport package.
func (r *Resource) Client(client Doer) *Resource {
	if client != nil {
		r.client = client
	}
	return r
}

// Logger replaces the no-op default logger.
func (r *Resource) Logger(logger *zap.Logger) *Resource {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// CompleteOn pins the loop the handler is delivered on. The default is
// the process-wide loop from the dispatch package.
func (r *Resource) CompleteOn(loop *dispatch.Loop) *Resource {
	if loop != nil {
		r.loop = loop
	}
	return r
}

// Method returns the request's HTTP method.
func (r *Resource) Method() string {
	return r.method
}

// URL returns the request's base URL as configured, before query
// parameters are merged in.
func (r *Resource) URL() string {
	return r.url
}

// IsComplete reports whether the dispatch has resolved and its outcome
// has been recorded.
func (r *Resource) IsComplete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.complete
}

// IsSuccess reports whether the dispatch resolved successfully.
func (r *Resource) IsSuccess() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.complete && r.success
}

// IsFailure reports whether the dispatch resolved as a failure.
func (r *Resource) IsFailure() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.complete && !r.success
}

// StatusCode returns the HTTP status code of the completed exchange.
// It is 0 while the dispatch is pending and stays 0 when no response
// was received at all.
func (r *Resource) StatusCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Body returns the payload delivered to the handler: the decoded JSON
// object on success, or a map carrying "ErrorMessage" on failure. It is
// nil until the dispatch completes.
func (r *Resource) Body() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body
}

func (r *Resource) transportClient() Doer {
	if r.client != nil {
		return r.client
	}
	return transport.Default()
}

func (r *Resource) completionLoop() *dispatch.Loop {
	if r.loop != nil {
		return r.loop
	}
	return dispatch.Main()
}
