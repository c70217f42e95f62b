package util

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func TestLoadConfig(t *testing.T) {
	type config struct {
		Name    string
		Port    int
		Tags    []string `env:"TEST_TAG_LIST"`
		Default string
		private string
	}
	t.Setenv("TEST_Name", "jumony")
	t.Setenv("TEST_Port", "8080")
	t.Setenv("TEST_TAG_LIST", `["a", "b"]`)
	c := config{Default: "x"}
	if err := LoadConfig("TEST_", &c); err != nil {
		t.Fatal(err)
	}
	if expected := (config{"jumony", 8080, []string{"a", "b"}, "x", ""}); !reflect.DeepEqual(c, expected) {
		t.Errorf("Got %#v, expected %#v", c, expected)
	}
	t.Setenv("TEST_Port", "not a number")
	if err := LoadConfig("TEST_", &c); err == nil {
		t.Errorf("expected unmarshal error")
	}
	if err := LoadConfig("MISSING_", &config{}); err == nil {
		t.Errorf("expected lookup error")
	}
}

func TestLogger(t *testing.T) {
	msgs, w := []string{}, &bytes.Buffer{}
	ctx := WithLogger(context.Background(), WithLvl(INFO, func(lvl Lvl, msg string) {
		msgs = append(msgs, lvl.String()+" "+msg)
	}))
	ctx = WithLogger(ctx, WriterLogFn(w, false))
	Debugf(ctx, "hidden %d", 1)
	Infof(ctx, "shown %d", 2)
	Error(ctx, "failed")
	if expected := []string{"INFO shown 2", "ERROR failed"}; !reflect.DeepEqual(msgs, expected) {
		t.Errorf("Got %v, expected %v", msgs, expected)
	}
	if expected := "[DEBUG] hidden 1\n[INFO] shown 2\n[ERROR] failed\n"; w.String() != expected {
		t.Errorf("Got %q, expected %q", w.String(), expected)
	}
	Info(context.Background(), "no logger, no panic")
	if ParseLvl("WARN") != WARN || ParseLvl("bogus") != DEBUG {
		t.Errorf("bad ParseLvl")
	}
}

func TestRetryContext(t *testing.T) {
	calls := 0
	v, err := RetryContext(context.Background(), func(ctx context.Context) (int, error) {
		if calls++; calls < 3 {
			return 0, errors.New("not yet")
		}
		return calls, nil
	}, 3, time.Millisecond)
	if err != nil || v != 3 {
		t.Errorf("Got %v %v, expected 3", v, err)
	}
	calls = 0
	_, err = RetryContext(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("never")
	}, 2, time.Millisecond)
	if err == nil || calls != 3 {
		t.Errorf("Got %v after %d calls, expected error after 3", err, calls)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RetryContext(ctx, func(ctx context.Context) (int, error) {
		return 0, errors.New("fail")
	}, 5, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Got %v, expected context.Canceled", err)
	}
}

func TestMemo(t *testing.T) {
	m, calls := Memo[int, string]{}, atomic.Int32{}
	f := func(k int) (string, error) {
		calls.Add(1)
		if k < 0 {
			return "", fmt.Errorf("negative key %d", k)
		}
		return strconv.Itoa(k), nil
	}
	g := errgroup.Group{}
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			v, err := m.Get(i%4, f)
			if err == nil && v != strconv.Itoa(i%4) {
				return fmt.Errorf("Got %q for %d", v, i%4)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 4 {
		t.Errorf("Got %d entries, expected 4", m.Len())
	}
	before := calls.Load()
	if _, err := m.Get(-1, f); err == nil {
		t.Errorf("expected error")
	}
	if _, err := m.Get(-1, f); err == nil || calls.Load() != before+2 || m.Len() != 4 {
		t.Errorf("errors must not be cached")
	}
}

func TestMemoMax(t *testing.T) {
	m, calls := Memo[int, int]{Max: 3}, 0
	f := func(k int) (int, error) { calls++; return k * 2, nil }
	for i := 0; i < 10; i++ {
		if v, err := m.Get(i, f); err != nil || v != i*2 {
			t.Errorf("Got %v %v, expected %d", v, err, i*2)
		}
		if m.Len() > 3 {
			t.Fatalf("Got %d entries, expected at most 3", m.Len())
		}
	}
	if v, err := m.Get(9, f); err != nil || v != 18 || calls != 10 {
		t.Errorf("Got %v %v after %d calls, expected cached 18", v, err, calls)
	}
}
