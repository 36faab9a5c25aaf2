package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/models"
)

func alert(symbol string) models.Alert {
	return models.Alert{Symbol: symbol, Type: models.AlertTypePriceMove, Severity: models.SeverityWarning}
}

func symbolsOf(alerts []models.Alert) []string {
	out := make([]string, len(alerts))
	for i, a := range alerts {
		out[i] = a.Symbol
	}
	return out
}

func TestAlertStore_BoundedNewestFirst(t *testing.T) {
	s := NewAlertStore(3)
	for _, sym := range []string{"A", "B", "C", "D"} {
		s.Add(alert(sym))
	}
	assert.Equal(t, []string{"D", "C", "B"}, symbolsOf(s.All()))
	assert.Equal(t, []string{"D", "C", "B"}, symbolsOf(s.Active()))
}

func TestAlertStore_DefaultCapacity(t *testing.T) {
	s := NewAlertStore(0)
	for i := 0; i < DefaultMaxAlerts+5; i++ {
		s.Add(alert("X"))
	}
	assert.Len(t, s.All(), DefaultMaxAlerts)
}

func TestAlertStore_DismissIndexesActiveList(t *testing.T) {
	s := NewAlertStore(10)
	for _, sym := range []string{"A", "B", "C"} {
		s.Add(alert(sym))
	}

	// active: C, B, A
	assert.True(t, s.Dismiss(1))
	assert.Equal(t, []string{"C", "A"}, symbolsOf(s.Active()))

	// index 1 now refers to A
	assert.True(t, s.Dismiss(1))
	assert.Equal(t, []string{"C"}, symbolsOf(s.Active()))

	assert.False(t, s.Dismiss(5))
	assert.False(t, s.Dismiss(-1))
	assert.Equal(t, []string{"C"}, symbolsOf(s.Active()))
	assert.Len(t, s.All(), 3)
}

func TestAlertStore_ClearAll(t *testing.T) {
	s := NewAlertStore(10)
	s.Add(alert("A"))
	s.Add(alert("B"))
	s.ClearAll()
	s.ClearAll()

	assert.Empty(t, s.Active())
	assert.NotNil(t, s.Active())
	for _, a := range s.All() {
		assert.True(t, a.Dismissed)
	}
}

func TestAlertStore_ConcurrentAdds(t *testing.T) {
	s := NewAlertStore(100)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(alert("A"))
			s.Active()
		}()
	}
	wg.Wait()
	assert.Len(t, s.All(), 20)
}

func TestHub_BroadcastsToClients(t *testing.T) {
	hub := NewHub(common.NewSilentLogger())
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	sent := models.Alert{Symbol: "AAPL", Title: "Apple up 10.0%", Severity: models.SeverityCritical}
	require.NoError(t, hub.Publish(context.Background(), sent))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got models.Alert
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, sent.Symbol, got.Symbol)
	assert.Equal(t, sent.Title, got.Title)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishWithoutClients(t *testing.T) {
	hub := NewHub(common.NewSilentLogger())
	go hub.Run()
	defer hub.Stop()

	assert.NoError(t, hub.Publish(context.Background(), alert("AAPL")))
	hub.Stop()
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaSink_Publish(t *testing.T) {
	w := &fakeWriter{}
	sink := &KafkaSink{writer: w, topic: "alerts", logger: common.NewSilentLogger()}

	a := models.Alert{Symbol: "D05.SI", Title: "DBS down 5.0%", Timestamp: checkTime}
	require.NoError(t, sink.Publish(context.Background(), a))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "D05.SI", string(w.msgs[0].Key))
	assert.Equal(t, checkTime, w.msgs[0].Time)

	var got models.Alert
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, "DBS down 5.0%", got.Title)

	require.NoError(t, sink.Close())
	assert.True(t, w.closed)
}

func TestKafkaSink_WrapsWriteError(t *testing.T) {
	boom := errors.New("leader not available")
	sink := &KafkaSink{writer: &fakeWriter{err: boom}, topic: "alerts", logger: common.NewSilentLogger()}

	err := sink.Publish(context.Background(), alert("AAPL"))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "alerts")
}
