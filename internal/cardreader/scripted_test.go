package cardreader

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScripted_ReplayInOrder(t *testing.T) {
	fault := errors.New("timeout")
	s := NewScripted(false,
		NoCard(),
		Card(CardTypeMembership, "A1"),
		Card(CardTypeBank, ""),
		Fault(fault),
	)
	ctx := context.Background()

	_, err := s.ReadCard(ctx)
	assert.ErrorIs(t, err, ErrNoCardPresented)

	card, err := s.ReadCard(ctx)
	require.NoError(t, err)
	assert.Equal(t, CardTypeMembership, card.Type)
	require.NotNil(t, card.TagID)
	assert.Equal(t, "A1", *card.TagID)

	card, err = s.ReadCard(ctx)
	require.NoError(t, err)
	assert.Equal(t, CardTypeBank, card.Type)
	assert.Nil(t, card.TagID)

	_, err = s.ReadCard(ctx)
	assert.ErrorIs(t, err, fault)

	_, err = s.ReadCard(ctx)
	assert.ErrorIs(t, err, ErrScriptExhausted)
	assert.Equal(t, 4, s.Reads())
}

func TestScripted_Loop(t *testing.T) {
	s := NewScripted(true, Card(CardTypeMembership, "A1"), NoCard())
	for i := 0; i < 6; i++ {
		_, err := s.ReadCard(context.Background())
		if i%2 == 0 {
			assert.NoError(t, err)
		} else {
			assert.ErrorIs(t, err, ErrNoCardPresented)
		}
	}
	assert.Equal(t, 6, s.Reads())
}

func TestScripted_ReturnsCopy(t *testing.T) {
	s := NewScripted(true, Card(CardTypeMembership, "A1"))
	first, err := s.ReadCard(context.Background())
	require.NoError(t, err)
	*first.TagID = "changed"

	second, err := s.ReadCard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A1", *second.TagID)
}

func TestScripted_DelayHonoursContext(t *testing.T) {
	s := NewScripted(false, Outcome{Err: ErrNoCardPresented, Delay: time.Minute})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.ReadCard(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestScripted_OnReadAndClose(t *testing.T) {
	var seen []int
	s := NewScripted(true, NoCard())
	s.OnRead = func(i int) { seen = append(seen, i) }

	_, _ = s.ReadCard(context.Background())
	_, _ = s.ReadCard(context.Background())
	assert.Equal(t, []int{0, 1}, seen)

	require.NoError(t, s.Close())
	_, err := s.ReadCard(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "closed"))
}

func TestParseCardType(t *testing.T) {
	tests := []struct {
		in      string
		want    CardType
		wantErr bool
	}{
		{"bank", CardTypeBank, false},
		{" Membership ", CardTypeMembership, false},
		{"loyalty", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCardType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, strings.TrimSpace(strings.ToLower(tt.in)), got.String())
		})
	}
}
