package resource

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/rajeshsegu/resource-go/packages/dispatch"
	"github.com/rajeshsegu/resource-go/packages/encode"
)

// Failure messages delivered under the "ErrorMessage" key. The status
// format carries 0 when no response was received at all.
const (
	statusFailureFormat      = "HTTP Status Code %d."
	statusBodyFailureFormat  = "HTTP Status Code %d with response %s."
	contentTypeFailureFormat = "Unexpected contentType: %s."
	parseFailureMessage      = "Error parsing json response."
)

// Send assembles the request synchronously and queues it for
// asynchronous execution at the configured priority. Nothing fails at
// this point: a configuration the transport cannot act on surfaces
// through the handler as a failure, like any other outcome.
func (r *Resource) Send() *Resource {
	req, err := r.assemble()

	if r.queue == nil {
		r.queue = dispatch.NewQueue()
	}

	if err != nil {
		r.logger.Debug("request assembly failed",
			zap.String("url", r.url),
			zap.Error(err),
		)
		r.queue.Enqueue(r.priority, func(ctx context.Context) {
			defer r.queue.Stop()
			if r.cancelled.Load() {
				return
			}
			r.finish(nil, err)
		})
		return r
	}

	r.queue.Enqueue(r.priority, func(ctx context.Context) {
		// The queue serves exactly one unit of work per Send, so the
		// worker is released as soon as that work resolves.
		defer r.queue.Stop()
		if r.cancelled.Load() {
			return
		}
		resp, err := r.execute(ctx, req)
		if err != nil && r.cancelled.Load() {
			// Interrupted in flight; the delivery is what was cancelled.
			return
		}
		r.finish(resp, err)
	})
	return r
}

// Cancel abandons the dispatch. Queued work is dropped and an in-flight
// network call is interrupted. A request whose network call already
// returned still delivers; delivery cannot be recalled from the
// completion loop.
func (r *Resource) Cancel() {
	r.cancelled.Store(true)
	if r.queue != nil {
		r.queue.Cancel()
	}
}

// assemble snapshots the builder into a physical request: URL with
// encoded query, body per the form/binary branch, basic auth, then
// explicit headers. Header order matters: explicit headers are applied
// last so they win over anything derived.
func (r *Resource) assemble() (*http.Request, error) {
	payload, err := encode.Payload(r.method, r.form, r.parts)
	if err != nil {
		return nil, fmt.Errorf("build request body: %w", err)
	}

	target := encode.QueryURL(r.url, r.params)

	var body io.Reader
	if len(payload.Data) > 0 {
		body = bytes.NewReader(payload.Data)
	}

	req, err := http.NewRequest(r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if r.hasAuth {
		credentials := r.user + ":" + r.password
		encoded := base64.StdEncoding.EncodeToString([]byte(credentials))
		req.Header.Set("Authorization", "Basic "+encoded)
	}
	if payload.ContentType != "" {
		req.Header.Set("Content-Type", payload.ContentType)
	}
	for name, value := range r.headers {
		req.Header.Set(name, value)
	}

	return req, nil
}

// execute performs the blocking network call. The timeout rides on the
// request context, making it the transport's to enforce.
func (r *Resource) execute(ctx context.Context, req *http.Request) (*reply, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.transportClient().Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string)
	for name := range resp.Header {
		headers[name] = resp.Header.Get(name)
	}

	return &reply{
		statusCode: resp.StatusCode,
		headers:    headers,
		body:       data,
	}, nil
}

// finish hands the network result to the completion loop, which
// classifies it, records the outcome, and invokes the handler. The
// handler never runs on the queue's worker goroutine.
func (r *Resource) finish(resp *reply, err error) {
	r.completionLoop().Dispatch(func() {
		success, body := r.classify(resp, err)

		status := 0
		if resp != nil {
			status = resp.statusCode
		}

		r.mu.Lock()
		r.complete = true
		r.success = success
		r.status = status
		r.body = body
		handler := r.handler
		r.mu.Unlock()

		if handler != nil {
			handler(success, body)
		}
	})
}

// classify normalizes a network result into the (success, body) pair
// the handler receives.
func (r *Resource) classify(resp *reply, err error) (bool, map[string]any) {
	if err != nil || resp == nil {
		r.logger.Debug("transport failure",
			zap.String("url", r.url),
			zap.Error(err),
		)
		return false, errorBody(fmt.Sprintf(statusFailureFormat, 0))
	}

	if !resp.isSuccess() {
		// Parse whatever came back anyway; useful when chasing failures.
		if parsed, perr := resp.json(); perr == nil {
			r.logger.Debug("error response body",
				zap.Int("status", resp.statusCode),
				zap.Any("body", parsed),
			)
		}
		return false, errorBody(fmt.Sprintf(statusBodyFailureFormat, resp.statusCode, resp.bodyString()))
	}

	if !resp.isJSON() {
		return false, errorBody(fmt.Sprintf(contentTypeFailureFormat, resp.contentType()))
	}

	parsed, err := resp.json()
	if err != nil {
		r.logger.Debug("response decode failed",
			zap.String("url", r.url),
			zap.Error(err),
		)
		return false, errorBody(parseFailureMessage)
	}

	return true, parsed
}

func errorBody(message string) map[string]any {
	return map[string]any{"ErrorMessage": message}
}
