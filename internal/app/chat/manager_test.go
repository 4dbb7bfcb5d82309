package chat

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomchat/internal/pkg/errs"
)

func TestRegisterJoinsDefaultRoom(t *testing.T) {
	m := newTestManager(t, nil)
	alice := register(t, m, "alice")

	assert.Equal(t, "general", m.CurrentRoom("alice"))
	assert.Equal(t, []string{
		"[14:05:30] alice joined the room",
		"=== Joined room: general ===",
		"[14:05:30] SYSTEM: alice connected to the server",
	}, alice.Lines())
}

func TestRegisterRejectsTakenName(t *testing.T) {
	m := newTestManager(t, nil)
	register(t, m, "alice")

	other := newRecorder("alice")
	err := m.Register("alice", other)
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrNameTaken, err.Code)
	assert.Equal(t, "Username 'alice' is already taken. Please choose another:", err.Message)
	assert.Empty(t, other.Lines())

	assert.Nil(t, m.Register("Alice", newRecorder("Alice")), "names are case-sensitive")
}

func TestConcurrentRegistrationOfSameName(t *testing.T) {
	m := newTestManager(t, nil)

	const racers = 32
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if m.Register("carol", newRecorder("carol")) == nil {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, []string{"carol"}, m.ListUsers())
	members, err := m.RoomMembers("general")
	require.Nil(t, err)
	assert.Equal(t, []string{"carol"}, members)
}

func TestJoinReplaysHistoryWithoutDuplication(t *testing.T) {
	m := newTestManager(t, nil)
	register(t, m, "alice")

	require.Nil(t, m.BroadcastChat("general", "alice", "one"))
	require.Nil(t, m.BroadcastChat("general", "alice", "two"))

	bob := register(t, m, "bob")
	assert.Equal(t, []string{
		"[14:05:30] bob joined the room",
		"=== Joined room: general ===",
		"[14:05:30] alice: one",
		"[14:05:30] alice: two",
		"[14:05:30] SYSTEM: bob connected to the server",
	}, bob.Lines())

	bob.Reset()
	require.Nil(t, m.BroadcastChat("general", "alice", "three"))
	assert.Equal(t, []string{"[14:05:30] alice: three"}, bob.Lines())
}

func TestJoinAndLeave(t *testing.T) {
	m := newTestManager(t, nil)
	alice := register(t, m, "alice")
	bob := register(t, m, "bob")
	bob.Reset()

	require.Nil(t, m.Join("alice", "tech-talk"))
	assert.Equal(t, "tech-talk", m.CurrentRoom("alice"))
	assert.Equal(t, []string{"[14:05:30] alice left the room"}, bob.Lines())
	assert.Equal(t, []RoomInfo{{Name: "general", Members: 1}, {Name: "tech-talk", Members: 1}}, m.ListRooms())

	err := m.Join("alice", "tech-talk")
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrAlreadyInRoom, err.Code)

	err = m.Join("alice", "bad name")
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrRoomNameInvalid, err.Code)

	err = m.Join("ghost", "tech-talk")
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrUserNotFound, err.Code)

	alice.Reset()
	require.Nil(t, m.Leave("alice"))
	assert.Equal(t, "", m.CurrentRoom("alice"))
	assert.Empty(t, alice.Lines(), "the leaver is no longer a member when Leave is broadcast")
	assert.Equal(t, []RoomInfo{{Name: "general", Members: 1}}, m.ListRooms(), "empty non-default room is removed")

	err = m.Leave("alice")
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrNotInRoom, err.Code)

	err = m.BroadcastChat("general", "alice", "hi")
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrNotInRoom, err.Code)

	err = m.BroadcastChat("nowhere", "alice", "hi")
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrRoomNotFound, err.Code)
}

func TestDefaultRoomSurvivesEmpty(t *testing.T) {
	m := newTestManager(t, nil)
	register(t, m, "alice")

	require.Nil(t, m.Leave("alice"))
	assert.Equal(t, []RoomInfo{{Name: "general", Members: 0}}, m.ListRooms())
}

func TestDeregister(t *testing.T) {
	m := newTestManager(t, nil)
	register(t, m, "alice")
	bob := register(t, m, "bob")
	require.Nil(t, m.Join("alice", "x"))
	require.Nil(t, m.Join("bob", "x"))

	bob.Reset()
	m.Deregister("alice")
	assert.Equal(t, []string{
		"[14:05:30] alice left the room",
		"[14:05:30] SYSTEM: alice disconnected from the server",
	}, bob.Lines())

	members, err := m.RoomMembers("x")
	require.Nil(t, err)
	assert.Equal(t, []string{"bob"}, members, "room stays while occupied")

	m.Deregister("bob")
	_, err = m.RoomMembers("x")
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrRoomNotFound, err.Code)
	assert.Empty(t, m.ListUsers())

	m.Deregister("bob")
	assert.Empty(t, m.ListUsers())
}

func TestDeregisterWithoutRoomAnnouncesInDefault(t *testing.T) {
	m := newTestManager(t, nil)
	register(t, m, "alice")
	bob := register(t, m, "bob")
	require.Nil(t, m.Leave("alice"))

	bob.Reset()
	m.Deregister("alice")
	assert.Equal(t, []string{"[14:05:30] SYSTEM: alice disconnected from the server"}, bob.Lines())
}

func TestSendPrivate(t *testing.T) {
	m := newTestManager(t, nil)
	alice := register(t, m, "alice")
	bob := register(t, m, "bob")
	carol := register(t, m, "carol")
	alice.Reset()
	bob.Reset()
	carol.Reset()

	require.Nil(t, m.SendPrivate("bob", "alice", "Hi Alice!"))
	assert.Equal(t, []string{"[14:05:30] PRIVATE from bob: Hi Alice!"}, alice.Lines())
	assert.Equal(t, []string{"Private message sent to alice: Hi Alice!"}, bob.Lines())
	assert.Empty(t, carol.Lines())

	bob.Reset()
	alice.Reset()
	err := m.SendPrivate("bob", "dave", "hello?")
	require.NotNil(t, err)
	assert.Equal(t, "User 'dave' not found or offline.", err.Message)
	assert.Empty(t, alice.Lines())
	assert.Empty(t, bob.Lines())
	assert.Empty(t, carol.Lines())
}

func TestRoomIsolation(t *testing.T) {
	m := newTestManager(t, nil)
	alice := register(t, m, "alice")
	bob := register(t, m, "bob")

	require.Nil(t, m.Join("alice", "tech-talk"))
	alice.Reset()

	require.Nil(t, m.BroadcastChat("general", "bob", "anyone?"))
	assert.Empty(t, alice.Lines())
	assert.Contains(t, bob.Lines(), "[14:05:30] bob: anyone?")

	members, err := m.RoomMembers("general")
	require.Nil(t, err)
	assert.Equal(t, []string{"bob"}, members)
}

func TestAnnounce(t *testing.T) {
	m := newTestManager(t, nil)
	alice := register(t, m, "alice")
	bob := register(t, m, "bob")
	require.Nil(t, m.Join("bob", "ops"))
	alice.Reset()
	bob.Reset()

	require.Nil(t, m.Announce("", "maintenance at noon"))
	assert.Equal(t, []string{"[14:05:30] SYSTEM: maintenance at noon"}, alice.Lines())
	assert.Equal(t, []string{"[14:05:30] SYSTEM: maintenance at noon"}, bob.Lines())

	require.Nil(t, m.Announce("ops", "ops only"))
	assert.Len(t, alice.Lines(), 1)
	assert.Len(t, bob.Lines(), 2)

	err := m.Announce("missing", "x")
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrRoomNotFound, err.Code)
}

func TestKickUnknownAndRecorder(t *testing.T) {
	m := newTestManager(t, nil)
	alice := register(t, m, "alice")
	alice.Reset()

	assert.False(t, m.Kick("ghost", "spam"))
	assert.True(t, m.Kick("alice", "spam"))
	assert.Equal(t, []string{"[14:05:30] SYSTEM: You have been removed from the server: spam"}, alice.Lines())
}

func TestUsersSnapshot(t *testing.T) {
	m := newTestManager(t, nil)
	register(t, m, "bob")
	register(t, m, "alice")
	require.Nil(t, m.Join("bob", "x"))

	users := m.Users()
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Name)
	assert.Equal(t, "general", users[0].Room)
	assert.Equal(t, "bob", users[1].Name)
	assert.Equal(t, "x", users[1].Room)
	assert.Equal(t, fixedTime, users[1].ConnectedAt)
}

func TestSingleRoomInvariantUnderConcurrency(t *testing.T) {
	m := newTestManager(t, nil)
	names := []string{"a", "b", "c", "d"}
	for _, n := range names {
		register(t, m, n)
	}

	rooms := []string{"r1", "r2", "r3", "general"}
	var wg sync.WaitGroup
	for i, n := range names {
		wg.Add(1)
		go func(i int, n string) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = m.Join(n, rooms[(i+j)%len(rooms)])
				_ = m.BroadcastChat(m.CurrentRoom(n), n, "ping")
				if j%7 == 0 {
					_ = m.Leave(n)
				}
			}
		}(i, n)
	}
	wg.Wait()

	seen := map[string]int{}
	for _, info := range m.ListRooms() {
		members, err := m.RoomMembers(info.Name)
		require.Nil(t, err)
		for _, name := range members {
			seen[name]++
			assert.Equal(t, info.Name, m.CurrentRoom(name))
		}
	}
	for _, n := range names {
		assert.LessOrEqual(t, seen[n], 1, "%s is in more than one room", n)
		if m.CurrentRoom(n) == "" {
			assert.Equal(t, 0, seen[n])
		}
	}
}
