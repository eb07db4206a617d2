package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/tracetower/pkg/errors"
	"github.com/matzehuels/tracetower/pkg/observability"
	"github.com/matzehuels/tracetower/pkg/timeline"
	"github.com/matzehuels/tracetower/pkg/trace"
)

// Message command constants.
const (
	CmdProcess = "process"
	CmdDone    = "done"
	CmdError   = "error"
)

// Request is a one-shot preprocessing job: the raw trace bytes plus the
// layout configuration. The worker fills in the job id and sequence
// number on submission.
type Request struct {
	Cmd    string          `json:"cmd"`
	JobID  string          `json:"job_id"`
	Seq    uint64          `json:"seq"`
	Data   []byte          `json:"data"`
	Config timeline.Config `json:"config"`
}

// Reply is the worker's answer: a complete layout payload (lane
// layouts, total rows, and the effective config travel inside it) or an
// error descriptor. Replies carry the request's sequence number so the
// host can verify it still cares.
type Reply struct {
	Cmd     string           `json:"cmd"`
	JobID   string           `json:"job_id"`
	Seq     uint64           `json:"seq"`
	Layout  *timeline.Layout `json:"layout,omitempty"`
	Message string           `json:"message,omitempty"`
}

// Worker runs preprocessing off the interactive surface's goroutine.
// It shares no mutable state with the host: input arrives as a one-shot
// request, output leaves as a complete reply on the Replies channel.
//
// Submitting a new job cancels the in-flight one, and replies whose
// sequence number is no longer the latest are dropped before sending.
// A reply already buffered when the newer job lands still gets
// delivered, so hosts compare Reply.Seq against Latest before applying.
// A panic inside preprocessing becomes an error reply; the host's
// previously applied layout is untouched.
type Worker struct {
	replies chan Reply
	logger  *log.Logger

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker creates an idle worker.
func NewWorker(logger *log.Logger) *Worker {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Worker{
		replies: make(chan Reply, 16),
		logger:  logger,
	}
}

// Replies returns the reply channel. One reply arrives per submitted
// job, except jobs superseded before completion, which are dropped.
func (w *Worker) Replies() <-chan Reply {
	return w.replies
}

// Latest returns the sequence number of the most recent submission.
func (w *Worker) Latest() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seq
}

// Submit starts preprocessing a trace, cancelling any in-flight job.
// It returns immediately with the job's id and sequence number.
func (w *Worker) Submit(ctx context.Context, data []byte, cfg timeline.Config) Request {
	req := Request{
		Cmd:    CmdProcess,
		JobID:  uuid.NewString(),
		Data:   data,
		Config: cfg,
	}

	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.seq++
	req.Seq = w.seq
	jobCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.mu.Unlock()

	w.logger.Debug("submitted preprocessing job", "job", req.JobID, "seq", req.Seq)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer cancel()
		w.run(jobCtx, req)
	}()

	return req
}

// run executes one job and emits its reply unless superseded.
func (w *Worker) run(ctx context.Context, req Request) {
	reply := Reply{Cmd: CmdDone, JobID: req.JobID, Seq: req.Seq}

	l, err := w.process(ctx, req)
	if err != nil {
		reply.Cmd = CmdError
		reply.Message = errors.UserMessage(err)
	} else {
		reply.Layout = l
	}

	// A newer submission supersedes this reply entirely.
	if latest := w.Latest(); req.Seq != latest {
		observability.Viewer().OnStaleReply(ctx, req.Seq, latest)
		w.logger.Debug("dropped stale reply", "job", req.JobID, "seq", req.Seq, "latest", latest)
		return
	}
	if ctx.Err() != nil {
		return
	}

	select {
	case w.replies <- reply:
	case <-ctx.Done():
	}
}

// process parses, validates, and lays out the trace. Panics during
// preprocessing are converted to errors so a malformed input can never
// take down the host.
func (w *Worker) process(ctx context.Context, req Request) (l *timeline.Layout, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodePreprocess, "preprocessing panicked: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := trace.Unmarshal(req.Data)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return timeline.Build(doc, req.Config)
}

// Close cancels any in-flight job and waits for its goroutine, then
// closes the reply channel.
func (w *Worker) Close() {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	// Bump the sequence so any still-running job sees itself superseded.
	w.seq++
	w.mu.Unlock()

	w.wg.Wait()
	close(w.replies)
}

// String renders a request for logs.
func (r Request) String() string {
	return fmt.Sprintf("%s job=%s seq=%d bytes=%d", r.Cmd, r.JobID, r.Seq, len(r.Data))
}
