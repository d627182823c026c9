//go:build !headless

package host

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestKeyMappingCoversEveryNDSButton(t *testing.T) {
	buttons := []Key{KeyA, KeyB, KeySelect, KeyStart, KeyRight, KeyLeft, KeyUp, KeyDown, KeyR, KeyL, KeyX, KeyY}
	seen := map[ebiten.Key]bool{}
	for _, b := range buttons {
		k := keyMapping(b)
		if k < 0 {
			t.Fatalf("button %v has no host key mapping", b)
		}
		if seen[k] {
			t.Fatalf("host key %v mapped from more than one NDS button", k)
		}
		seen[k] = true
	}
}
