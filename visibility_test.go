package simviewer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecideOwnedTruthTable(t *testing.T) {
	// owned visible, debug element, cell debug, general debug -> visible
	table := []struct {
		owned, debug, cellDebug, generalDebug bool
		want                                  bool
	}{
		{false, false, false, false, false},
		{false, false, false, true, false},
		{false, false, true, false, false},
		{false, false, true, true, false},
		{false, true, false, false, false},
		{false, true, false, true, false},
		{false, true, true, false, false},
		{false, true, true, true, false},
		{true, false, false, false, true},
		{true, false, false, true, true},
		{true, false, true, false, true},
		{true, false, true, true, true},
		{true, true, false, false, false},
		{true, true, false, true, false},
		{true, true, true, false, true},
		{true, true, true, true, true},
	}
	for _, row := range table {
		t.Run(fmt.Sprintf("%v", row), func(t *testing.T) {
			id := MustPackID(5, row.debug, 1)
			// the general switch must not matter for owned elements
			for _, general := range []bool{false, true} {
				kt := KindToggles{OwnedVisible: row.owned, GeneralVisible: general}
				assert.Equal(t, row.want, Decide(id, kt, row.cellDebug, row.generalDebug))
			}
		})
	}
}

func TestDecideGeneralTruthTable(t *testing.T) {
	table := []struct {
		general, generalDebug bool
		want                  bool
	}{
		{false, false, false},
		{false, true, false},
		{true, false, false},
		{true, true, true},
	}
	for _, row := range table {
		for _, debug := range []bool{false, true} {
			for _, owned := range []bool{false, true} {
				for _, cellDebug := range []bool{false, true} {
					id := MustPackID(0, debug, 3)
					kt := KindToggles{OwnedVisible: owned, GeneralVisible: row.general}
					assert.Equal(t, row.want, Decide(id, kt, cellDebug, row.generalDebug),
						"general=%v generalDebug=%v debug=%v owned=%v cellDebug=%v",
						row.general, row.generalDebug, debug, owned, cellDebug)
				}
			}
		}
	}
}

func TestTogglesPerKind(t *testing.T) {
	tg := DefaultToggles()
	tg.kind(KindLines).set(ScopeOwned, false)
	tg.kind(KindVectors).set(ScopeGeneral, false)

	assert.Equal(t, KindToggles{OwnedVisible: true, GeneralVisible: true}, tg.For(KindPoints))
	assert.Equal(t, KindToggles{OwnedVisible: false, GeneralVisible: true}, tg.For(KindLines))
	assert.Equal(t, KindToggles{OwnedVisible: true, GeneralVisible: false}, tg.For(KindVectors))

	owned := MustPackID(1, false, 1)
	assert.True(t, tg.Decide(KindPoints, owned))
	assert.False(t, tg.Decide(KindLines, owned))
}
