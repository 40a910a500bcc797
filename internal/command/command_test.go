package command

import "testing"

func TestParse_Quit(t *testing.T) {
	c, err := Parse("quit")
	if err != nil {
		t.Fatalf("Parse(quit): %v", err)
	}
	if c.Kind != Quit {
		t.Errorf("Kind = %v, want Quit", c.Kind)
	}
}

func TestParse_Request(t *testing.T) {
	c, err := Parse("request 0042")
	if err != nil {
		t.Fatalf("Parse(request 0042): %v", err)
	}
	if c.Kind != Request || c.FileID != 42 {
		t.Errorf("got %+v, want Kind=Request FileID=42", c)
	}
}

func TestParse_Request_Malformed(t *testing.T) {
	cases := []string{"request 42", "request 99999", "request abcd", "request", "request 12 34"}
	for _, in := range cases {
		if _, err := Parse(in); err != ErrMalformedRequest {
			t.Errorf("Parse(%q) err = %v, want ErrMalformedRequest", in, err)
		}
	}
}

func TestParse_PingToggle(t *testing.T) {
	c, err := Parse("ping on")
	if err != nil || c.Kind != PingToggle || !c.Show {
		t.Errorf("Parse(ping on) = %+v, %v", c, err)
	}
	c, err = Parse("ping off")
	if err != nil || c.Kind != PingToggle || c.Show {
		t.Errorf("Parse(ping off) = %+v, %v", c, err)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []string{"", "   ", "blah", "ping", "ping sideways", "quit now"}
	for _, in := range cases {
		if _, err := Parse(in); err != ErrInvalidCommand {
			t.Errorf("Parse(%q) err = %v, want ErrInvalidCommand", in, err)
		}
	}
}
