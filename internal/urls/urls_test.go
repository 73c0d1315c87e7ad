package urls

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPath(t *testing.T) {
	assert.Equal(t, "/msg/7", Path(MessageDetail, 7))
	assert.Equal(t, "/msg/create/3", Path(MessageCreate, 3))
	assert.Equal(t, "/notifications", Path(Notifications, 0))
}

func TestPattern(t *testing.T) {
	assert.Equal(t, "/msg/:id", Pattern(MessageDetail))
	assert.Equal(t, "/msg/create/:id", Pattern(MessageCreate))
	assert.Equal(t, "/notifications", Pattern(Notifications))
}

func TestPath_UnknownRoutePanics(t *testing.T) {
	assert.Panics(t, func() { Path("msg.unknown", 1) })
}

func TestGenerator(t *testing.T) {
	relative := NewGenerator("")
	assert.Equal(t, "/msg/9", relative.MessageURL(9))

	absolute := NewGenerator("https://tradyfit.example/")
	assert.Equal(t, "https://tradyfit.example/msg/9", absolute.MessageURL(9))
	assert.Equal(t, "https://tradyfit.example/notifications", absolute.NotificationsURL())
}
