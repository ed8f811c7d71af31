package wear

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientOptionsFromURL(t *testing.T) {
	opts, prefix, err := clientOptionsFromURL("mqtt://broker:1883/robo")
	require.NoError(t, err)
	require.Equal(t, "robo/", prefix)
	require.Len(t, opts.Servers, 1)
	require.Equal(t, "tcp://broker:1883", opts.Servers[0].String())

	opts, prefix, err = clientOptionsFromURL("ssl://broker:8883")
	require.NoError(t, err)
	require.Equal(t, "", prefix)
	require.Equal(t, "ssl://broker:8883", opts.Servers[0].String())

	_, _, err = clientOptionsFromURL("://bad")
	require.Error(t, err)
}

func TestReportEncoding(t *testing.T) {
	out, err := json.Marshal(Report{
		Device:     "dev-1",
		Sector:     4096,
		WriteCount: 3,
		Time:       1700000000,
	})
	require.NoError(t, err)
	require.JSONEq(t,
		`{"device":"dev-1","sector":4096,"write_count":3,"time":1700000000}`,
		string(out))
}
