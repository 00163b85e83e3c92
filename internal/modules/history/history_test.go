package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStore_Bounded(t *testing.T) {
	s := NewStore(2, time.Minute)
	for i := 0; i < 3; i++ {
		s.Append("s1",
			Turn{Role: RoleUser, Text: fmt.Sprintf("q%d", i)},
			Turn{Role: RoleAssistant, Text: fmt.Sprintf("a%d", i)},
		)
	}
	turns := s.Turns("s1")
	require.Len(t, turns, 4)
	require.Equal(t, "q1", turns[0].Text)
	require.Equal(t, "a2", turns[3].Text)
	require.False(t, turns[0].At.IsZero())

	// callers get a copy
	turns[0].Text = "changed"
	require.Equal(t, "q1", s.Turns("s1")[0].Text)
}

func TestStore_Isolation(t *testing.T) {
	s := NewStore(3, time.Minute)
	s.Append("a", Turn{Role: RoleUser, Text: "hi"})
	require.Len(t, s.Turns("a"), 1)
	require.Nil(t, s.Turns("b"))

	s.Reset("a")
	require.Nil(t, s.Turns("a"))
}

func TestStore_Disabled(t *testing.T) {
	s := NewStore(0, time.Minute)
	s.Append("a", Turn{Role: RoleUser, Text: "hi"})
	require.Nil(t, s.Turns("a"))

	s = NewStore(2, time.Minute)
	s.Append("", Turn{Role: RoleUser, Text: "hi"})
	require.Nil(t, s.Turns(""))
}

func TestStore_Expiry(t *testing.T) {
	s := NewStore(2, 20*time.Millisecond)
	s.Append("a", Turn{Role: RoleUser, Text: "hi"})
	time.Sleep(40 * time.Millisecond)
	require.Nil(t, s.Turns("a"))
}
