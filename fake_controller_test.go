package svcctl

import (
	"context"
	"errors"
	"sync"
)

// fakeController records systemctl invocations instead of running them.
// Verbs listed in failures return the stored Result; everything else succeeds.
type fakeController struct {
	mu       sync.Mutex
	calls    []string
	names    []string
	failures map[Verb]Result
	status   Result
}

func newFakeController() *fakeController {
	return &fakeController{
		failures: make(map[Verb]Result),
		status:   Result{Succeeded: true, State: StateActive, Output: "active\n"},
	}
}

// fail makes verb return a non-zero exit with the given output
func (f *fakeController) fail(verb Verb, code int, output string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[verb] = Result{
		ExitCode: code,
		Output:   output,
		Err:      errors.New("exit status"),
	}
}

// setStatus makes IsActive answer as systemctl would for the given exit code
func (f *fakeController) setStatus(output string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var err error
	if code != 0 {
		err = errors.New("exit status")
	}
	f.status = classifyStatus("", output, code, err)
}

func (f *fakeController) Run(_ context.Context, verb Verb, name string) Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.names = append(f.names, name)
	call := verb.String()
	if verb.TakesName() {
		call += " " + name
	} else {
		name = ""
	}
	f.calls = append(f.calls, call)

	if r, ok := f.failures[verb]; ok {
		r.Verb = verb
		r.Name = name
		return r
	}
	return Result{Verb: verb, Name: name, Succeeded: true}
}

func (f *fakeController) IsActive(_ context.Context, name string) Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, VerbIsActive.String()+" "+name)
	r := f.status
	r.Verb = VerbIsActive
	r.Name = name
	return r
}

func (f *fakeController) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Names returns the unit names Run received, as passed by the caller
func (f *fakeController) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.names...)
}

func (f *fakeController) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
	f.names = nil
}

// Ensure fakeController implements ProcessController.
var _ ProcessController = (*fakeController)(nil)
