package httpclient

import (
	"io"
	"strings"
	"testing"
)

func TestKind_String(t *testing.T) {
	tests := map[Kind]string{KindData: "data", KindUpload: "upload", KindDownload: "download", Kind(9): "unknown"}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}

func TestProgress_FanOutAndUnregister(t *testing.T) {
	p := newProgress()
	p.reset(0, 10)

	var a, b []int64
	unregA := p.register(func(completed, _ int64) { a = append(a, completed) })
	p.register(func(completed, total int64) {
		if total != 10 {
			t.Errorf("total = %d, want 10", total)
		}
		b = append(b, completed)
	})

	p.add(4)
	unregA()
	unregA()
	p.add(6)

	if len(a) != 1 || a[0] != 4 {
		t.Errorf("first handler samples = %v, want [4]", a)
	}
	if len(b) != 2 || b[1] != 10 {
		t.Errorf("second handler samples = %v, want [4 10]", b)
	}
	if completed, total := p.snapshot(); completed != 10 || total != 10 {
		t.Errorf("snapshot = %d/%d", completed, total)
	}
}

func TestProgress_HandlerMayUnregisterItself(t *testing.T) {
	p := newProgress()
	var unregister func()
	calls := 0
	unregister = p.register(func(int64, int64) {
		calls++
		unregister()
	})
	p.add(1)
	p.add(1)
	if calls != 1 {
		t.Errorf("expected one call, got %d", calls)
	}
}

func TestCountingReader(t *testing.T) {
	p := newProgress()
	p.reset(0, 11)
	data, err := io.ReadAll(&countingReader{r: strings.NewReader("hello world"), p: p})
	if err != nil || string(data) != "hello world" {
		t.Fatalf("ReadAll = %q, %v", data, err)
	}
	if completed, _ := p.snapshot(); completed != 11 {
		t.Errorf("completed = %d, want 11", completed)
	}
}

func TestProgress_LateHandlerReceivesCurrentSample(t *testing.T) {
	p := newProgress()
	p.reset(0, 8)
	p.add(3)

	var got [][2]int64
	p.register(func(completed, total int64) { got = append(got, [2]int64{completed, total}) })
	p.add(5)

	want := [][2]int64{{3, 8}, {8, 8}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("samples = %v, want %v", got, want)
	}
}
