package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
	"github.com/dkeye/Babel/internal/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type translatorFunc func(ctx context.Context, text string, target domain.Language) (string, error)

func (f translatorFunc) Translate(ctx context.Context, text string, target domain.Language) (string, error) {
	return f(ctx, text, target)
}

// tagged is an offline stand-in that marks its output with the target.
var tagged = translatorFunc(func(_ context.Context, text string, target domain.Language) (string, error) {
	return fmt.Sprintf("[%s] %s", target, text), nil
})

var failing = translatorFunc(func(context.Context, string, domain.Language) (string, error) {
	return "", errors.New("provider down")
})

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []domain.Message
}

func (p *recordingPublisher) Publish(m domain.Message) {
	p.mu.Lock()
	p.msgs = append(p.msgs, m)
	p.mu.Unlock()
}

func (p *recordingPublisher) Messages() []domain.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Message(nil), p.msgs...)
}

func joinAll(t *testing.T, reg *Registry, members map[domain.ConnID][2]string) {
	t.Helper()
	for id, m := range members {
		_, err := reg.Join(id, m[0], m[1], nil)
		require.NoError(t, err)
	}
}

func TestRelay_Send_TranslatesOncePerDistinctLanguage(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTranslator(ctrl)
	pub := mocks.NewMockPublisher(ctrl)

	// Given en, es, fr and a second es speaker
	reg := NewRegistry(100)
	joinAll(t, reg, map[domain.ConnID][2]string{
		"c1": {"Ann", "en"}, "c2": {"Bea", "es"}, "c3": {"Cyd", "fr"}, "c4": {"Dan", "es"},
	})
	tr.EXPECT().Translate(gomock.Any(), "hello", domain.Spanish).Return("hola", nil).Times(1)
	tr.EXPECT().Translate(gomock.Any(), "hello", domain.French).Return("bonjour", nil).Times(1)
	pub.EXPECT().Publish(gomock.Any()).Times(1)

	relay := NewRelay(reg, tr, tagged, nil, RelayConfig{})
	relay.PublishTo(pub)

	// When Ann sends
	msg, err := relay.Send(context.Background(), "c1", "hello")

	// Then exactly es and fr are rendered once each and the message is stored
	req.NoError(err)
	req.Equal(map[domain.Language]string{domain.Spanish: "hola", domain.French: "bonjour"}, msg.Translations)
	req.Equal("Ann", msg.Username)
	req.Equal(domain.ConnID("c1"), msg.SenderID)
	req.Equal(uint64(1), msg.Seq)
	req.Len(relay.RecentHistory(10), 1)
}

func TestRelay_Send_OnlyBaselineSkipsProvider(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTranslator(ctrl)

	reg := NewRegistry(100)
	joinAll(t, reg, map[domain.ConnID][2]string{"c1": {"Ann", "en"}, "c2": {"Bob", "en"}})

	relay := NewRelay(reg, tr, tagged, nil, RelayConfig{})
	msg, err := relay.Send(context.Background(), "c1", "hi")

	req.NoError(err)
	req.Empty(msg.Translations)
	req.NotNil(msg.Translations)
}

func TestRelay_Send_FallsBackWhenProviderFails(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(100)
	joinAll(t, reg, map[domain.ConnID][2]string{
		"c1": {"Ann", "en"}, "c2": {"Bea", "es"}, "c3": {"Cyd", "fr"}, "c4": {"Dirk", "de"},
	})
	pub := &recordingPublisher{}
	relay := NewRelay(reg, failing, tagged, nil, RelayConfig{})
	relay.PublishTo(pub)

	msg, err := relay.Send(context.Background(), "c1", "good morning")

	req.NoError(err)
	req.Equal(map[domain.Language]string{
		domain.Spanish: "[es] good morning",
		domain.French:  "[fr] good morning",
		domain.German:  "[de] good morning",
	}, msg.Translations)
	req.Len(pub.Messages(), 1)
}

func TestRelay_Send_NoFallbackUsesOriginText(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(100)
	joinAll(t, reg, map[domain.ConnID][2]string{"c1": {"Ann", "en"}, "c2": {"Bea", "es"}})

	relay := NewRelay(reg, failing, failing, nil, RelayConfig{})
	msg, err := relay.Send(context.Background(), "c1", "zebra")

	req.NoError(err)
	req.Equal("zebra", msg.Translations[domain.Spanish])
}

func TestRelay_Send_TimeoutIsBounded(t *testing.T) {
	req := require.New(t)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	// A provider that ignores its context entirely.
	stuck := translatorFunc(func(context.Context, string, domain.Language) (string, error) {
		<-release
		return "too late", nil
	})

	reg := NewRegistry(100)
	joinAll(t, reg, map[domain.ConnID][2]string{"c1": {"Ann", "en"}, "c2": {"Bea", "es"}})
	relay := NewRelay(reg, stuck, tagged, nil, RelayConfig{TranslateTimeout: 30 * time.Millisecond})

	start := time.Now()
	msg, err := relay.Send(context.Background(), "c1", "hello")

	req.NoError(err)
	req.Less(time.Since(start), time.Second)
	req.Equal("[es] hello", msg.Translations[domain.Spanish])
}

func TestRelay_Send_ProviderPanicIsContained(t *testing.T) {
	req := require.New(t)
	boom := translatorFunc(func(context.Context, string, domain.Language) (string, error) {
		panic("boom")
	})

	reg := NewRegistry(100)
	joinAll(t, reg, map[domain.ConnID][2]string{"c1": {"Ann", "en"}, "c2": {"Cyd", "fr"}})
	relay := NewRelay(reg, boom, tagged, nil, RelayConfig{})

	msg, err := relay.Send(context.Background(), "c1", "thanks")

	req.NoError(err)
	req.Equal("[fr] thanks", msg.Translations[domain.French])
}

func TestRelay_Send_EmptyTranslationFallsBack(t *testing.T) {
	blank := translatorFunc(func(context.Context, string, domain.Language) (string, error) { return "", nil })
	reg := NewRegistry(100)
	joinAll(t, reg, map[domain.ConnID][2]string{"c1": {"Ann", "en"}, "c2": {"Bea", "es"}})
	relay := NewRelay(reg, blank, tagged, nil, RelayConfig{})

	msg, err := relay.Send(context.Background(), "c1", "yes")

	require.NoError(t, err)
	require.Equal(t, "[es] yes", msg.Translations[domain.Spanish])
}

func TestRelay_Send_UnknownSenderHasNoSideEffects(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTranslator(ctrl)
	pub := mocks.NewMockPublisher(ctrl)

	reg := NewRegistry(100)
	joinAll(t, reg, map[domain.ConnID][2]string{"c1": {"Ann", "es"}})
	relay := NewRelay(reg, tr, tagged, nil, RelayConfig{})
	relay.PublishTo(pub)

	_, err := relay.Send(context.Background(), "ghost", "hello")

	req.ErrorIs(err, ErrUnknownSender)
	req.Empty(relay.RecentHistory(10))
}

func TestRelay_Send_RejectsInvalidText(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)

	reg := NewRegistry(100)
	joinAll(t, reg, map[domain.ConnID][2]string{"c1": {"Ann", "en"}})
	relay := NewRelay(reg, failing, tagged, nil, RelayConfig{})
	relay.PublishTo(pub)

	_, err := relay.Send(context.Background(), "c1", "   \n\t ")
	req.ErrorIs(err, domain.ErrEmptyMessage)

	_, err = relay.Send(context.Background(), "c1", strings.Repeat("ß", domain.MaxMessageLen+1))
	req.ErrorIs(err, domain.ErrMessageTooLong)
	req.Empty(relay.RecentHistory(10))
}

func TestRelay_Send_AcceptsBoundaryLength(t *testing.T) {
	reg := NewRegistry(100)
	joinAll(t, reg, map[domain.ConnID][2]string{"c1": {"Ann", "en"}})
	relay := NewRelay(reg, failing, tagged, nil, RelayConfig{})

	msg, err := relay.Send(context.Background(), "c1", "  "+strings.Repeat("ß", domain.MaxMessageLen)+"  ")

	require.NoError(t, err)
	require.Equal(t, strings.Repeat("ß", domain.MaxMessageLen), msg.OriginalText)
}

func TestRelay_Send_SlowTranslationDoesNotBlockOtherSenders(t *testing.T) {
	req := require.New(t)
	started := make(chan struct{})
	release := make(chan struct{})

	tr := translatorFunc(func(ctx context.Context, text string, target domain.Language) (string, error) {
		if text == "slow" {
			close(started)
			<-release
		}
		return text + "-" + string(target), nil
	})

	reg := NewRegistry(100)
	joinAll(t, reg, map[domain.ConnID][2]string{"c1": {"Ann", "en"}, "c2": {"Bea", "es"}})
	pub := &recordingPublisher{}
	relay := NewRelay(reg, tr, tagged, nil, RelayConfig{TranslateTimeout: 5 * time.Second})
	relay.PublishTo(pub)

	slowDone := make(chan domain.Message, 1)
	go func() {
		m, _ := relay.Send(context.Background(), "c1", "slow")
		slowDone <- m
	}()
	<-started

	fast, err := relay.Send(context.Background(), "c2", "fast")
	req.NoError(err)
	req.Equal(uint64(1), fast.Seq)

	close(release)
	slow := <-slowDone
	req.Equal(uint64(2), slow.Seq)

	published := pub.Messages()
	req.Len(published, 2)
	req.Equal("fast", published[0].OriginalText)
	req.Equal("slow", published[1].OriginalText)
}

func TestRelay_Send_DeliveredAfterSenderDisconnects(t *testing.T) {
	req := require.New(t)
	started := make(chan struct{})
	release := make(chan struct{})
	tr := translatorFunc(func(ctx context.Context, text string, _ domain.Language) (string, error) {
		close(started)
		<-release
		return "hola", ctx.Err()
	})

	reg := NewRegistry(100)
	joinAll(t, reg, map[domain.ConnID][2]string{"c1": {"Ann", "en"}, "c2": {"Bea", "es"}})
	pub := &recordingPublisher{}
	relay := NewRelay(reg, tr, tagged, nil, RelayConfig{TranslateTimeout: 5 * time.Second})
	relay.PublishTo(pub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan domain.Message, 1)
	go func() {
		m, _ := relay.Send(ctx, "c1", "hello")
		done <- m
	}()
	<-started

	// When the sender disconnects mid-dispatch
	cancel()
	reg.Leave("c1")
	close(release)

	// Then the message is still stored and published intact
	msg := <-done
	req.Equal("hola", msg.Translations[domain.Spanish])
	req.Len(pub.Messages(), 1)
	req.Len(relay.RecentHistory(10), 1)
}

func TestRelay_Send_PublishOrderMatchesHistoryOrder(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(1000)
	joinAll(t, reg, map[domain.ConnID][2]string{
		"c1": {"Ann", "es"}, "c2": {"Bea", "fr"}, "c3": {"Cyd", "de"},
	})
	jitter := translatorFunc(func(_ context.Context, text string, target domain.Language) (string, error) {
		time.Sleep(time.Duration(len(text)%3) * time.Millisecond)
		return text + "/" + string(target), nil
	})
	pub := &recordingPublisher{}
	relay := NewRelay(reg, jitter, tagged, nil, RelayConfig{})
	relay.PublishTo(pub)

	// Each sender sends sequentially, like a connection reader does.
	var wg sync.WaitGroup
	for _, id := range []domain.ConnID{"c1", "c2", "c3"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 20 {
				_, err := relay.Send(context.Background(), id, fmt.Sprintf("%s-%02d", id, i))
				if err != nil {
					t.Error(err)
				}
			}
		}()
	}
	wg.Wait()

	history := relay.RecentHistory(1000)
	published := pub.Messages()
	req.Len(history, 60)
	req.Equal(textsOf(history), textsOf(published))

	last := map[domain.ConnID]string{}
	for i, m := range history {
		req.Equal(uint64(i+1), m.Seq)
		req.Greater(m.OriginalText, last[m.SenderID])
		last[m.SenderID] = m.OriginalText
	}
}

func TestRelay_Send_ExcludesLanguagesThatLeftBeforeDispatch(t *testing.T) {
	reg := NewRegistry(100)
	joinAll(t, reg, map[domain.ConnID][2]string{"c1": {"Ann", "en"}, "c2": {"Bea", "es"}, "c3": {"Cyd", "fr"}})
	reg.Leave("c3")
	relay := NewRelay(reg, failing, tagged, nil, RelayConfig{})

	msg, err := relay.Send(context.Background(), "c1", "bye")

	require.NoError(t, err)
	require.Equal(t, []domain.Language{domain.Spanish}, keysOf(msg.Translations))
}

func keysOf(m map[domain.Language]string) []domain.Language {
	out := make([]domain.Language, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestRelay_RequestSummary(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sum := mocks.NewMockSummarizer(ctrl)

	reg := NewRegistry(100)
	joinAll(t, reg, map[domain.ConnID][2]string{"c1": {"Ann", "en"}})
	relay := NewRelay(reg, failing, tagged, sum, RelayConfig{})
	for i := 1; i <= 12; i++ {
		_, err := relay.Send(context.Background(), "c1", fmt.Sprintf("msg %d", i))
		req.NoError(err)
	}

	sum.EXPECT().Summarize(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, window []core.SummaryLine) (string, error) {
			req.Len(window, 10)
			req.Equal(core.SummaryLine{Username: "Ann", Text: "msg 3"}, window[0])
			req.Equal("msg 12", window[9].Text)
			return "digest", nil
		})

	res, err := relay.RequestSummary(context.Background(), 10)

	req.NoError(err)
	req.Equal("digest", res.Summary)
	req.Equal(uint64(12), res.MessageCount)
	req.False(res.Timestamp.IsZero())
}

func TestRelay_RequestSummary_PropagatesFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	sum := mocks.NewMockSummarizer(ctrl)
	sum.EXPECT().Summarize(gomock.Any(), gomock.Len(0)).Return("", errors.New("quota"))

	relay := NewRelay(NewRegistry(10), failing, tagged, sum, RelayConfig{})
	_, err := relay.RequestSummary(context.Background(), 0)

	require.ErrorContains(t, err, "quota")
}
