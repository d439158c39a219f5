package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/applebridge/internal/apperr"
	"github.com/starford/applebridge/internal/osascript"
	"github.com/starford/applebridge/internal/record"
	"github.com/starford/applebridge/internal/testutil"
)

type pair struct{ a, b string }

func pairQuery(script string) Query[pair] {
	return Query[pair]{
		App:    "Notes",
		Script: script,
		Fields: 2,
		Map: func(r record.Record) (pair, bool) {
			return pair{a: r[0], b: r[1]}, true
		},
	}
}

func TestNew_KeepsExecutor(t *testing.T) {
	fake := testutil.NewFakeExecutor("")
	b := New(fake)
	assert.Same(t, fake, b.Executor())
}

func TestList_DecodesRecords(t *testing.T) {
	fake := testutil.NewFakeExecutor("one|1;two|2;broken")
	b := New(fake, WithTimeout(7*time.Second))

	got, err := List(context.Background(), b, pairQuery("payload"))
	require.NoError(t, err)
	assert.Equal(t, []pair{{"one", "1"}, {"two", "2"}}, got)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "payload", calls[0].Script)
	assert.Equal(t, 7*time.Second, calls[0].Timeout)
}

func TestList_AccessDeniedSkipsRunner(t *testing.T) {
	fake := testutil.NewFakeExecutor("one|1").Deny("Notes")
	b := New(fake)

	got, err := List(context.Background(), b, pairQuery("payload"))
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperr.ErrAccessDenied)
	assert.Contains(t, err.Error(), "cannot access Notes app")
	assert.Empty(t, fake.Calls())
	assert.Equal(t, 1, fake.AccessChecks())
}

func TestList_ScriptErrorPropagates(t *testing.T) {
	fake := testutil.NewFakeExecutor("Error: Can't get folder 1.")
	b := New(fake)

	_, err := List(context.Background(), b, pairQuery("payload"))
	assert.ErrorIs(t, err, apperr.ErrExecution)
	msg, ok := ScriptMessage(err)
	require.True(t, ok)
	assert.Equal(t, "Can't get folder 1.", msg)
}

func TestList_RunnerFailure(t *testing.T) {
	fake := testutil.NewFakeExecutor("")
	fake.Reply = func(string) osascript.Result {
		return osascript.Result{Error: "execution timed out after 30s"}
	}
	b := New(fake)

	_, err := List(context.Background(), b, pairQuery("payload"))
	assert.ErrorIs(t, err, apperr.ErrExecution)
	assert.Contains(t, err.Error(), "execution timed out after 30s")
}

func TestExec_Sentinels(t *testing.T) {
	fake := testutil.NewFakeExecutor("Success: Note created")
	b := New(fake)
	msg, err := b.Exec(context.Background(), "Notes", "make note")
	require.NoError(t, err)
	assert.Equal(t, "Note created", msg)

	fake.Output = "Error: folder is locked"
	_, err = b.Exec(context.Background(), "Notes", "make note")
	assert.ErrorIs(t, err, apperr.ErrExecution)
	assert.Contains(t, err.Error(), "folder is locked")

	fake.Output = "something else"
	_, err = b.Exec(context.Background(), "Notes", "make note")
	assert.ErrorIs(t, err, apperr.ErrExecution)
}

type titled struct{ Title string }

func (p titled) Validate() error {
	return validation.ValidateStruct(&p, validation.Field(&p.Title, validation.Required))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(titled{Title: "x"}))
	err := Validate(titled{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUnsupported(t *testing.T) {
	err := Unsupported("do it in the app")
	assert.True(t, errors.Is(err, apperr.ErrUnsupported))
	assert.Contains(t, err.Error(), "do it in the app")
}
