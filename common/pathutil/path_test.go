package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveMultiSeparator(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "repeated separators", in: "a//b///c", want: "a/b/c"},
		{name: "absolute path", in: "//opt//pluginLibs/", want: "/opt/pluginLibs/"},
		{name: "already normalized", in: "/opt/pluginLibs/mysql5", want: "/opt/pluginLibs/mysql5"},
		{name: "only separators", in: "////", want: "/"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemoveMultiSeparator(tt.in))
		})
	}
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "/opt/pluginLibs/kafka", Join("/opt/pluginLibs/", "kafka"))
	assert.Equal(t, "root/kafka", Join("root//", "/kafka"))
}
