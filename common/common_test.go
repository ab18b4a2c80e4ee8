package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xor-shift/xoshiro/util/splitmix"
)

func clearConfigEnv(t *testing.T) {
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), config)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	clearConfigEnv(t)

	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte(
		"DB_USER=rng\n"+
			"DB_NAME=streams\n"+
			"PRODUCER_PORT=9000\n"+
			"RNG_WORKERS=4\n"+
			"RNG_SEED=0x2a\n"), 0o600))

	t.Setenv("PRODUCER_PORT", "9100")

	config, err := LoadConfig(file)
	require.NoError(t, err)

	assert.Equal(t, "rng", config.DB.User)
	assert.Equal(t, "streams", config.DB.Name)
	assert.Equal(t, 9100, config.ProducerPort)
	assert.Equal(t, uint(4), config.Workers)
	assert.Equal(t, "rng_streams", config.Exchange)

	seed, err := config.SeedState()
	require.NoError(t, err)
	assert.Equal(t, splitmix.Expand(42), seed)

	dbConfig := config.MySQL()
	assert.Equal(t, "rng", dbConfig.User)
	assert.Equal(t, "streams", dbConfig.DBName)
	assert.True(t, dbConfig.ParseTime)
}

func TestLoadConfigEmptyEnvIsUnset(t *testing.T) {
	clearConfigEnv(t)

	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte("DB_PASSWORD=hunter2\n"), 0o600))

	t.Setenv("DB_PASSWORD", "")

	config, err := LoadConfig(file)
	require.NoError(t, err)

	assert.Equal(t, "hunter2", config.DB.Password)
	assert.Equal(t, 8080, config.ProducerPort)
}

func TestLoadConfigBadValue(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("RNG_WORKERS", "many")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestParseSeed(t *testing.T) {
	seed, err := ParseSeed("0000000000000001000000000000000200000000000000030000000000000004")
	require.NoError(t, err)
	assert.Equal(t, [4]uint64{1, 2, 3, 4}, seed)

	seed, err = ParseSeed("0")
	require.NoError(t, err)
	assert.Equal(t, splitmix.Expand(0), seed)

	_, err = ParseSeed("0000000000000000000000000000000000000000000000000000000000000000")
	assert.ErrorIs(t, err, ErrZeroSeed)

	_, err = ParseSeed("not a seed")
	assert.ErrorIs(t, err, ErrBadSeed)
}

func TestRandomSeed(t *testing.T) {
	a, err := RandomSeed()
	require.NoError(t, err)
	b, err := RandomSeed()
	require.NoError(t, err)

	assert.NotEqual(t, [4]uint64{}, a)
	assert.NotEqual(t, a, b)
}

func TestParseJumpLevel(t *testing.T) {
	level, err := ParseJumpLevel("")
	require.NoError(t, err)
	assert.Equal(t, JumpLevelJump, level)

	level, err = ParseJumpLevel("long")
	require.NoError(t, err)
	assert.Equal(t, JumpLevelLong, level)

	_, err = ParseJumpLevel("short")
	assert.ErrorIs(t, err, ErrBadLevel)
}

func TestParseStreamRequest(t *testing.T) {
	request, err := ParseStreamRequest(nil)
	require.NoError(t, err)
	assert.Equal(t, StreamRequest{Count: 1}, request)

	request, err = ParseStreamRequest([]byte(`{"level": "long", "count": "3"}`))
	require.NoError(t, err)
	assert.Equal(t, StreamRequest{Level: "long", Count: 3}, request)

	_, err = ParseStreamRequest([]byte(`{"count": 1000}`))
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = ParseStreamRequest([]byte(`{"level": "sideways"}`))
	assert.ErrorIs(t, err, ErrBadLevel)

	_, err = ParseStreamRequest([]byte(`[1, 2]`))
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestParseVerifyRequest(t *testing.T) {
	request, err := ParseVerifyRequest([]byte(`{"state": "ab", "index": 7, "value": "ff"}`))
	require.NoError(t, err)
	assert.Equal(t, VerifyRequest{State: "ab", Index: 7, Value: "ff"}, request)

	_, err = ParseVerifyRequest([]byte(`{"index": 7}`))
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestEventEncoding(t *testing.T) {
	event := StreamEvent{
		Stream: Stream{
			Session: 3,
			Index:   12,
			Level:   JumpLevelLong,
			State:   "0000000000000001000000000000000200000000000000030000000000000004",
		},
		Allocated: 1700000000,
	}

	body, err := EncodeEvent(event)
	require.NoError(t, err)

	decoded, err := DecodeEvent(body)
	require.NoError(t, err)
	assert.Equal(t, event, decoded)

	_, err = DecodeEvent([]byte("garbage"))
	assert.Error(t, err)
}
