package types_test

import (
	"testing"

	types "github.com/hotstinder/hotstinder/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWinRate(t *testing.T) {
	Convey("Given win/loss counters", t, func() {
		Convey("When no games were played", func() {
			So(types.WinRate(0, 0), ShouldEqual, 0)
		})

		Convey("When some games were played", func() {
			So(types.WinRate(3, 1), ShouldEqual, 0.75)
			So(types.WinRate(0, 4), ShouldEqual, 0)
		})
	})
}

func TestTeamName(t *testing.T) {
	Convey("Given team indices", t, func() {
		So(types.TeamName(types.TeamBlue), ShouldEqual, "blue")
		So(types.TeamName(types.TeamRed), ShouldEqual, "red")
	})
}
