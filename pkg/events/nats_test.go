package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/feirinha/feirinha-backend/pkg/config"
)

type recordingConn struct {
	subjects []string
	payloads [][]byte
	err      error
	drained  bool
}

func (r *recordingConn) Publish(subject string, data []byte) error {
	if r.err != nil {
		return r.err
	}
	r.subjects = append(r.subjects, subject)
	r.payloads = append(r.payloads, data)
	return nil
}

func (r *recordingConn) Drain() error {
	r.drained = true
	return nil
}

func TestNATSPublisherPrefixesSubjectAndEncodesJSON(t *testing.T) {
	conn := &recordingConn{}
	pub := newNATSPublisher(conn, "feirinha.", nil)

	itemID := uuid.New()
	err := pub.Publish(context.Background(), SubjectItemDeleted, ItemDeleted{ItemID: itemID, PhotoCount: 2, OccurredAt: time.Unix(0, 0).UTC()})
	require.NoError(t, err)

	require.Equal(t, []string{"feirinha.items.deleted"}, conn.subjects)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(conn.payloads[0], &decoded))
	require.Equal(t, itemID.String(), decoded["item_id"])
	require.EqualValues(t, 2, decoded["photo_count"])

	pub.Close()
	require.True(t, conn.drained)
}

func TestNATSPublisherWrapsErrors(t *testing.T) {
	conn := &recordingConn{err: errors.New("nats: connection closed")}
	pub := newNATSPublisher(conn, "", nil)

	err := pub.Publish(context.Background(), SubjectPhotoDeleted, PhotoDeleted{})
	require.ErrorContains(t, err, "items.photos.deleted")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, pub.Publish(ctx, SubjectPhotoDeleted, PhotoDeleted{}), context.Canceled)
}

func TestNewWithoutURLReturnsNoop(t *testing.T) {
	pub, err := New(context.Background(), config.EventsConfig{}, "test", nil)
	require.NoError(t, err)
	require.IsType(t, Noop{}, pub)
	require.NoError(t, pub.Publish(context.Background(), SubjectItemDeleted, nil))
}
