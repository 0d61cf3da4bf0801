package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shmchat/pkg/config"
	"shmchat/pkg/models"
	"shmchat/pkg/shm"
)

// isolate points the store at a temp dir and clears env that would leak
// into the effective config.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"SHMCHAT_CONFIG", "SHMCHAT_NAME", "SHMCHAT_TRANSPORT", "SHMCHAT_MAX_ROOMS", "SHMCHAT_API_ENABLED"} {
		t.Setenv(k, "")
	}
	path := filepath.Join(t.TempDir(), "contacts")
	t.Setenv("SHMCHAT_STORE_PATH", path)
	t.Setenv("SHMCHAT_LOG_LEVEL", "error")
	return path
}

func run(ctx context.Context, input string, args ...string) (string, error) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetArgs(args)
	root.SetIn(strings.NewReader(input))
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestWriteCommand(t *testing.T) {
	isolate(t)
	tests := []struct {
		name  string
		args  []string
		input string
		want  string
	}{
		{"argument", []string{"write", "Alice"}, "hello\nquit\n", "=== Chat Writer - Alice ==="},
		{"several words", []string{"write", "Alice", "Smith"}, "quit\n", "=== Chat Writer - Alice Smith ==="},
		{"name flag", []string{"--name", "Carol", "write"}, "quit\n", "=== Chat Writer - Carol ==="},
		{"first line", []string{"write"}, "Bob\nhi\nquit\n", "=== Chat Writer - Bob ==="},
		{"empty answer", []string{"write"}, "\nquit\n", "=== Chat Writer - Anonymous ==="},
		{"room", []string{"write", "Alice", "--room", "12"}, "hi\nquit\n", "Writer exited."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--transport", "memory"}, tt.args...)
			out, err := run(context.Background(), tt.input, args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
			assert.NotContains(t, out, "Enter your name", "no prompt off a terminal")
		})
	}
}

func TestWriteInvalidRoom(t *testing.T) {
	isolate(t)
	_, err := run(context.Background(), "hi\n", "--transport", "memory", "write", "Alice", "--room", "1000")
	assert.ErrorIs(t, err, shm.ErrInvalidRoom)
}

func TestReadCommand(t *testing.T) {
	isolate(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	out, err := run(ctx, "", "--transport", "memory", "read", "--room", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "=== Chat Reader ===")
}

func TestChatCommandContacts(t *testing.T) {
	isolate(t)
	ctx := context.Background()

	out, err := run(ctx, "/new Bob 7\nhi Bob\n/quit\n", "--transport", "memory", "chat", "Alice")
	require.NoError(t, err)
	assert.Contains(t, out, "=== Chat - Alice ===")
	assert.Contains(t, out, "opened Bob #7 (key 2007)")

	out, err = run(ctx, "", "contacts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "#7    Bob")

	// reopened on the next start
	out, err = run(ctx, "/quit\n", "--transport", "memory", "chat", "Alice")
	require.NoError(t, err)
	assert.Contains(t, out, "* 1. Bob #7 (0 messages)")
}

func TestChatCommandRoomFlags(t *testing.T) {
	isolate(t)
	out, err := run(context.Background(), "/rooms\n/new Dan 4\n/quit\n",
		"--transport", "memory", "chat", "Alice", "--no-contacts", "--room", "Bob:7", "--room", "Carol:9")
	require.NoError(t, err)
	assert.Contains(t, out, "* 1. Bob #7")
	assert.Contains(t, out, "  2. Carol #9")

	out, err = run(context.Background(), "", "contacts", "list")
	require.NoError(t, err)
	assert.Equal(t, "no contacts\n", out, "--no-contacts neither loads nor saves")
}

func TestChatCommandBadRoomFlag(t *testing.T) {
	isolate(t)
	_, err := run(context.Background(), "", "--transport", "memory", "chat", "Alice", "--room", "Bob")
	assert.ErrorContains(t, err, "want name:number")
}

func TestParseRoomFlags(t *testing.T) {
	got, err := parseRoomFlags([]string{"Bob:7", " Carol : 9 ", "a:b:3"})
	require.NoError(t, err)
	want := []models.Contact{{Name: "Bob", Room: 7}, {Name: "Carol", Room: 9}, {Name: "a:b", Room: 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("parseRoomFlags mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"Bob", ":7", "Bob:x", "Bob:"} {
		_, err := parseRoomFlags([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestContactsCommands(t *testing.T) {
	isolate(t)
	ctx := context.Background()

	out, err := run(ctx, "", "contacts", "add", "Big", "Bob", "12")
	require.NoError(t, err)
	assert.Equal(t, "saved Big Bob #12\n", out)

	_, err = run(ctx, "", "contacts", "add", "Ann", "3")
	require.NoError(t, err)

	out, err = run(ctx, "", "contacts", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "#3    Ann"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "#12   Big Bob"), lines[1])

	out, err = run(ctx, "", "contacts", "rm", "12")
	require.NoError(t, err)
	assert.Equal(t, "removed #12\n", out)

	_, err = run(ctx, "", "contacts", "rm", "12")
	assert.ErrorContains(t, err, "no contact for room 12")

	_, err = run(ctx, "", "contacts", "add", "Zed", "0")
	assert.ErrorIs(t, err, shm.ErrInvalidRoom)

	_, err = run(ctx, "", "contacts", "add", "Zed", "seven")
	assert.ErrorContains(t, err, "room must be a number")
}

func TestConfigErrors(t *testing.T) {
	isolate(t)
	ctx := context.Background()

	_, err := run(ctx, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "contacts", "list")
	assert.ErrorContains(t, err, "not found")

	_, err = run(ctx, "", "--transport", "carrier-pigeon", "contacts", "list")
	assert.ErrorContains(t, err, "invalid configuration")

	t.Setenv("SHMCHAT_MAX_ROOMS", "many")
	_, err = run(ctx, "", "contacts", "list")
	assert.ErrorContains(t, err, "MAX_ROOMS")
}

func TestConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "shmchat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("identity:\n  name: FromFile\nchannel:\n  transport: memory\n"), 0o600))

	out, err := run(context.Background(), "quit\n", "--config", path, "write")
	require.NoError(t, err)
	assert.Contains(t, out, "Chat Writer - FromFile")

	// flags win over the file
	out, err = run(context.Background(), "quit\n", "--config", path, "--name", "FromFlag", "write")
	require.NoError(t, err)
	assert.Contains(t, out, "Chat Writer - FromFlag")
}

func TestSegmentCommandsNeedSysV(t *testing.T) {
	isolate(t)
	for _, cmd := range []string{"inspect", "rm"} {
		_, err := run(context.Background(), "", "--transport", "memory", cmd, "--room", "3")
		assert.ErrorIs(t, err, errNeedsSysV, cmd)
	}
	_, err := run(context.Background(), "", "inspect", "--room", "3", "--key", "99")
	assert.Error(t, err, "--room and --key are exclusive")
}

func TestSegmentFlagsResolve(t *testing.T) {
	cfg := config.Default()
	tests := []struct {
		flags segmentFlags
		want  shm.Key
	}{
		{segmentFlags{}, 1234},
		{segmentFlags{room: 7}, 2007},
		{segmentFlags{key: 99}, 99},
	}
	for _, tt := range tests {
		got, err := tt.flags.resolve(cfg)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	_, err := (&segmentFlags{room: 1000}).resolve(cfg)
	assert.ErrorIs(t, err, shm.ErrInvalidRoom)
}

func TestInspectAndRemoveSysV(t *testing.T) {
	isolate(t)
	key := shm.Key(0x5d000000 + (os.Getpid()%0x10000)*16)
	ch, err := shm.SysV{}.Open(key)
	if err != nil {
		t.Skipf("System V shared memory unavailable: %v", err)
	}
	t.Cleanup(func() { _ = shm.Remove(key) })
	_, err = ch.Write([]byte("Alice: hi there"))
	require.NoError(t, err)
	require.NoError(t, ch.Close())

	k := fmt.Sprint(int(key))
	out, err := run(context.Background(), "", "inspect", "--key", k)
	require.NoError(t, err)
	assert.Contains(t, out, `Alice says "hi there"`)
	assert.Contains(t, out, "size:         1.0 KiB")

	out, err = run(context.Background(), "", "rm", "--key", k)
	require.NoError(t, err)
	assert.Equal(t, "removed segment "+k+"\n", out)

	_, err = run(context.Background(), "", "inspect", "--key", k)
	assert.True(t, errors.Is(err, os.ErrNotExist), "got %v", err)
}

func TestDescribeFrame(t *testing.T) {
	assert.Equal(t, "(empty)", describeFrame(nil))
	assert.Equal(t, `Bob says "a: b" (9 B)`, describeFrame([]byte("Bob: a: b")))
	assert.Equal(t, `"garbage" (no sender, 7 B)`, describeFrame([]byte("garbage")))
}

func TestResolveName(t *testing.T) {
	cfg := config.Default()
	var out bytes.Buffer

	name, err := resolveName(nil, cfg, bufio.NewReader(strings.NewReader("  Eve  \n")), &out, true)
	require.NoError(t, err)
	assert.Equal(t, "Eve", name)
	assert.Equal(t, "Enter your name: ", out.String())

	name, err = resolveName(nil, cfg, bufio.NewReader(strings.NewReader("")), &out, false)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultName, name)

	cfg.Identity.Name = "Configured"
	name, err = resolveName(nil, cfg, bufio.NewReader(strings.NewReader("ignored\n")), &out, false)
	require.NoError(t, err)
	assert.Equal(t, "Configured", name)
}
