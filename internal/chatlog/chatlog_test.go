package chatlog

import "testing"

func TestAddAndByUser(t *testing.T) {
	l := New()
	l.Add("u1", "what are my options?", "here are some lenders")
	l.Add("u1", "and collateral?", "depends on the lender")
	l.Add("u2", "hello", "hi")

	got := l.ByUser("u1")
	if len(got) != 2 {
		t.Fatalf("ByUser(u1) length = %d, want 2", len(got))
	}
	if got[0].Message != "what are my options?" {
		t.Fatalf("first exchange message = %q", got[0].Message)
	}
	if got[0].ID == "" || got[0].CreatedAt.IsZero() {
		t.Fatalf("exchange missing id or timestamp: %+v", got[0])
	}

	if other := l.ByUser("nobody"); len(other) != 0 {
		t.Fatalf("ByUser(unknown) = %v, want empty", other)
	}
}

func TestFind(t *testing.T) {
	l := New()
	l.Add("u1", "tell me about collateral", "collateral depends on the lender")
	l.Add("u2", "visa questions", "ask your university")

	if got := l.Find("COLLATERAL"); len(got) != 1 {
		t.Fatalf("Find(collateral) length = %d, want 1", len(got))
	}
	if got := l.Find("mortgage"); len(got) != 0 {
		t.Fatalf("Find(mortgage) = %v, want empty", got)
	}
	if got := l.Find("  "); got != nil {
		t.Fatalf("Find(blank) = %v, want nil", got)
	}
}
