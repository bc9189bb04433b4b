package conversation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VishwasN1706/airis/internal/entity"
)

func testBundle(ip, narrative string) *entity.Bundle {
	return &entity.Bundle{
		IP: ip,
		ThreatReport: entity.ThreatReport{
			IP:         ip,
			Score:      55,
			Verdict:    "suspicious",
			ReportText: narrative,
		},
	}
}

func TestSessionBeginLookup(t *testing.T) {
	sess := newSession()
	assert.Equal(t, StateIdle, sess.State)
	assert.Empty(t, sess.Messages)

	gen := sess.beginLookup("1.2.3.4")
	assert.Equal(t, uint64(1), gen)
	assert.Equal(t, StateLoading, sess.State)
	assert.Equal(t, "1.2.3.4", sess.IP)

	// Retargeting bumps the generation and clears everything.
	sess.completeLookup(gen, testBundle("1.2.3.4", "report"), nil)
	sess.submitUser("hello")
	require.Len(t, sess.Messages, 2)

	gen2 := sess.beginLookup("5.6.7.8")
	assert.Equal(t, uint64(2), gen2)
	assert.Equal(t, StateLoading, sess.State)
	assert.Nil(t, sess.Bundle)
	assert.False(t, sess.LookupFailed)
	assert.Empty(t, sess.Messages)
}

func TestSessionCompleteLookup(t *testing.T) {
	t.Run("success seeds the narrative", func(t *testing.T) {
		sess := newSession()
		gen := sess.beginLookup("1.2.3.4")

		msg, applied := sess.completeLookup(gen, testBundle("1.2.3.4", "full narrative"), nil)
		require.True(t, applied)
		assert.Equal(t, StateReady, sess.State)
		assert.Equal(t, entity.RoleBot, msg.Role)
		assert.Equal(t, "full narrative", msg.Text)
		assert.NotNil(t, sess.Bundle)
	})

	t.Run("success without narrative seeds the fixed message", func(t *testing.T) {
		sess := newSession()
		gen := sess.beginLookup("1.2.3.4")

		msg, applied := sess.completeLookup(gen, testBundle("1.2.3.4", ""), nil)
		require.True(t, applied)
		assert.Equal(t, SeedNoReportText, msg.Text)
	})

	t.Run("failure seeds the warning and sets the flag", func(t *testing.T) {
		sess := newSession()
		gen := sess.beginLookup("1.2.3.4")

		msg, applied := sess.completeLookup(gen, nil, errors.New("boom"))
		require.True(t, applied)
		assert.Equal(t, StateReady, sess.State)
		assert.Equal(t, SeedLookupFailedText, msg.Text)
		assert.True(t, sess.LookupFailed)
		assert.Nil(t, sess.Bundle)
	})

	t.Run("stale generation is discarded", func(t *testing.T) {
		sess := newSession()
		stale := sess.beginLookup("1.2.3.4")
		sess.beginLookup("5.6.7.8")

		_, applied := sess.completeLookup(stale, testBundle("1.2.3.4", "old"), nil)
		assert.False(t, applied)
		assert.Equal(t, StateLoading, sess.State)
		assert.Nil(t, sess.Bundle)
		assert.Empty(t, sess.Messages)
	})
}

func TestSessionSubmitUser(t *testing.T) {
	ready := func() *Session {
		sess := newSession()
		gen := sess.beginLookup("1.2.3.4")
		sess.completeLookup(gen, testBundle("1.2.3.4", "report"), nil)
		return sess
	}

	t.Run("appends and awaits", func(t *testing.T) {
		sess := ready()
		msg, err := sess.submitUser("show risk score")
		require.NoError(t, err)
		assert.Equal(t, entity.RoleUser, msg.Role)
		assert.Equal(t, StateAwaiting, sess.State)
		assert.Len(t, sess.Messages, 2)
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		sess := ready()
		_, err := sess.submitUser("")
		assert.ErrorIs(t, err, ErrEmptyInput)
		assert.Equal(t, StateReady, sess.State)
		assert.Len(t, sess.Messages, 1)
	})

	t.Run("rejected while loading", func(t *testing.T) {
		sess := newSession()
		sess.beginLookup("1.2.3.4")
		_, err := sess.submitUser("hello")
		assert.ErrorIs(t, err, ErrSessionBusy)
	})

	t.Run("rejected while awaiting", func(t *testing.T) {
		sess := ready()
		_, err := sess.submitUser("first")
		require.NoError(t, err)
		_, err = sess.submitUser("second")
		assert.ErrorIs(t, err, ErrSessionBusy)
	})
}

func TestSessionCompleteReply(t *testing.T) {
	sess := newSession()
	gen := sess.beginLookup("1.2.3.4")
	sess.completeLookup(gen, testBundle("1.2.3.4", "report"), nil)
	_, err := sess.submitUser("show risk score")
	require.NoError(t, err)

	t.Run("applies in order", func(t *testing.T) {
		msg, applied := sess.completeReply(gen, "the reply")
		require.True(t, applied)
		assert.Equal(t, entity.RoleBot, msg.Role)
		assert.Equal(t, StateReady, sess.State)
		assert.Len(t, sess.Messages, 3)
	})

	t.Run("stale timer is discarded", func(t *testing.T) {
		stale := sess.Generation
		sess.beginLookup("5.6.7.8")

		_, applied := sess.completeReply(stale, "late reply")
		assert.False(t, applied)
		assert.Empty(t, sess.Messages)
	})
}

func TestSessionSnapshotIsolation(t *testing.T) {
	sess := newSession()
	gen := sess.beginLookup("1.2.3.4")
	sess.completeLookup(gen, testBundle("1.2.3.4", "report"), nil)

	snap := sess.snapshot()
	sess.submitUser("mutate after snapshot")

	assert.Len(t, snap.Messages, 1)
	assert.Len(t, sess.Messages, 2)
}
