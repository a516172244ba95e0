package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderRunsStepsInOrderAndSummarizes(t *testing.T) {
	t.Parallel()

	var ran []string
	step := func(name string) loadStep {
		return loadStep{label: name + "...", run: func(context.Context) error {
			ran = append(ran, name)
			return nil
		}}
	}
	m := newLoaderModel(context.Background(), func() string { return "8 messages from 3 members" }, []loadStep{step("fetch"), step("names")})
	assert.Contains(t, m.View(), "fetch... (1/2)")

	next, cmd := m.Update(m.runStep(0)())
	m = next.(loaderModel)
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "names... (2/2)")

	next, cmd = m.Update(cmd())
	m = next.(loaderModel)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Contains(t, m.View(), "✓ 8 messages from 3 members")
	assert.Equal(t, []string{"fetch", "names"}, ran)
}

func TestLoaderStopsAtFailedStep(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	m := newLoaderModel(context.Background(), nil, []loadStep{
		{label: "Fetching history...", run: func(context.Context) error { return boom }},
		{label: "Resolving names...", run: func(context.Context) error { t.Fatal("ran after failure"); return nil }},
	})

	next, _ := m.Update(m.runStep(0)())
	m = next.(loaderModel)
	assert.ErrorIs(t, m.err, boom)
	assert.Contains(t, m.View(), "✗ Fetching history... failed")
}

func TestLoadQuietRunsStepsWithoutOutput(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	calls := 0
	err := load(context.Background(), &out, true, nil,
		loadStep{label: "a", run: func(context.Context) error { calls++; return nil }},
		loadStep{label: "b", run: func(context.Context) error { calls++; return errors.New("second failed") }},
	)

	require.EqualError(t, err, "second failed")
	assert.Equal(t, 2, calls)
	assert.Empty(t, out.String())
}

func TestPlural(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1 member", plural(1, "member"))
	assert.Equal(t, "0 messages", plural(0, "message"))
	assert.Equal(t, "3 members", plural(3, "member"))
}
