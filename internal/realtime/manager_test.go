package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/testutil"
)

type ManagerSuite struct {
	suite.Suite
	manager     *Manager
	broadcaster *Broadcaster
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.manager = NewManager(testutil.NopLogger())
	s.broadcaster = NewBroadcaster(s.manager, testutil.NopLogger())
}

func (s *ManagerSuite) receive(sub *Subscriber) Message {
	select {
	case msg := <-sub.Messages():
		return msg
	case <-time.After(time.Second):
		s.FailNow("subscriber did not receive message")
		return Message{}
	}
}

func (s *ManagerSuite) assertEmpty(sub *Subscriber) {
	select {
	case msg := <-sub.Messages():
		s.Failf("unexpected message", "%+v", msg)
	default:
	}
}

func (s *ManagerSuite) TestSubscriberIDsAreUnique() {
	a := s.manager.Connect()
	b := s.manager.Connect()
	s.NotEmpty(a.ID())
	s.NotEqual(a.ID(), b.ID())
}

func (s *ManagerSuite) TestBroadcastScopedToRoom() {
	inGame1 := s.manager.Connect()
	inGame2 := s.manager.Connect()
	s.manager.Join(inGame1, 1)
	s.manager.Join(inGame2, 2)

	s.broadcaster.Publish(model.Event{
		Type:    model.EventPlayerJoined,
		GameID:  1,
		Payload: model.PlayerJoinedPayload{GameID: 1, PlayerCount: 2},
	})

	msg := s.receive(inGame1)
	s.Equal("player_joined", msg.Event)
	s.Equal(model.PlayerJoinedPayload{GameID: 1, PlayerCount: 2}, msg.Data)
	s.assertEmpty(inGame2)
}

func (s *ManagerSuite) TestSubscriberInSeveralRooms() {
	sub := s.manager.Connect()
	s.manager.Join(sub, 1)
	s.manager.Join(sub, 2)

	s.broadcaster.Publish(model.Event{Type: model.EventGameStarted, GameID: 1, Payload: model.GameStartedPayload{GameID: 1}})
	s.broadcaster.Publish(model.Event{Type: model.EventGameStarted, GameID: 2, Payload: model.GameStartedPayload{GameID: 2}})

	s.Equal(model.GameStartedPayload{GameID: 1}, s.receive(sub).Data)
	s.Equal(model.GameStartedPayload{GameID: 2}, s.receive(sub).Data)
}

func (s *ManagerSuite) TestLeaveStopsDelivery() {
	sub := s.manager.Connect()
	s.manager.Join(sub, 1)
	s.manager.Leave(sub, 1)

	sent, _ := s.manager.Broadcast(1, Message{Event: "game_started"})
	s.Zero(sent)
	s.assertEmpty(sub)
}

func (s *ManagerSuite) TestLateJoinerMissesEarlierEvents() {
	s.manager.Broadcast(1, Message{Event: "player_joined"})

	sub := s.manager.Connect()
	s.manager.Join(sub, 1)
	s.assertEmpty(sub)
}

func (s *ManagerSuite) TestPublishWithoutRoomIsNoop() {
	s.NotPanics(func() {
		s.broadcaster.Publish(model.Event{Type: model.EventGameStarted, GameID: 99})
	})
	s.Zero(s.manager.RoomCount())
}

func (s *ManagerSuite) TestSlowSubscriberDoesNotBlock() {
	slow := s.manager.Connect()
	fast := s.manager.Connect()
	s.manager.Join(slow, 1)
	s.manager.Join(fast, 1)

	for i := 0; i < sendBufferSize; i++ {
		s.manager.Broadcast(1, Message{Event: "player_score_update"})
		<-fast.Messages()
	}

	done := make(chan struct{})
	var sent, dropped int
	go func() {
		sent, dropped = s.manager.Broadcast(1, Message{Event: "game_complete"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		s.FailNow("broadcast blocked on a full subscriber")
	}

	s.Equal(1, sent)
	s.Equal(1, dropped)
	s.Equal("game_complete", s.receive(fast).Event)
}

func (s *ManagerSuite) TestDisconnectRemovesFromAllRooms() {
	sub := s.manager.Connect()
	s.manager.Join(sub, 1)
	s.manager.Join(sub, 2)

	s.manager.Disconnect(sub)

	s.Zero(s.manager.RoomSize(1))
	s.Zero(s.manager.RoomSize(2))
	select {
	case <-sub.Done():
	default:
		s.Fail("subscriber not closed")
	}
	s.False(s.manager.Join(sub, 1))

	// Second disconnect is harmless
	s.NotPanics(func() { s.manager.Disconnect(sub) })
}

func (s *ManagerSuite) TestCleanupEmptyRooms() {
	a := s.manager.Connect()
	b := s.manager.Connect()
	s.manager.Join(a, 1)
	s.manager.Join(b, 2)
	s.manager.Leave(a, 1)

	s.Equal(2, s.manager.RoomCount())
	s.Equal(1, s.manager.CleanupEmptyRooms())
	s.Equal(1, s.manager.RoomCount())
	s.Equal(1, s.manager.RoomSize(2))
}

func (s *ManagerSuite) TestRunReapsAndShutsDown() {
	sub := s.manager.Connect()
	s.manager.Join(sub, 1)
	s.manager.Leave(sub, 1)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		s.manager.Run(ctx, 10*time.Millisecond)
		close(stopped)
	}()

	s.Eventually(func() bool { return s.manager.RoomCount() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	<-stopped
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		s.Fail("subscriber not disconnected on shutdown")
	}
}
