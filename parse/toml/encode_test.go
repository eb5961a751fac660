package toml

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/dzjyyds666/cq/parse"
)

func TestStringifySections(t *testing.T) {
	convey.Convey("scalars come before section headers", t, func() {
		owner := parse.NewMap()
		owner.Set("name", parse.String("Tom"))

		database := parse.NewMap()
		database.Set("enabled", parse.Bool(true))
		database.Set("ports", parse.NewArray(
			parse.Number(8001),
			parse.Number(8002),
		))

		root := parse.NewMap()
		root.Set("title", parse.String("demo"))
		root.Set("owner", owner)
		root.Set("database", database)

		want := `title = "demo"

[owner]
name = "Tom"

[database]
enabled = true
ports = [8001, 8002]
`
		convey.So(Stringify(root), convey.ShouldEqual, want)
	})

	convey.Convey("nested tables use dotted headers", t, func() {
		primary := parse.NewMap()
		primary.Set("host", parse.String("localhost"))
		database := parse.NewMap()
		database.Set("primary", primary)
		root := parse.NewMap()
		root.Set("database", database)

		want := `[database]

[database.primary]
host = "localhost"
`
		convey.So(Stringify(root), convey.ShouldEqual, want)
	})

	convey.Convey("arrays of tables emit repeated headers", t, func() {
		alpha := parse.NewMap()
		alpha.Set("name", parse.String("alpha"))
		beta := parse.NewMap()
		beta.Set("name", parse.String("beta"))
		root := parse.NewMap()
		root.Set("servers", parse.NewArray(alpha, beta))

		want := `[[servers]]
name = "alpha"

[[servers]]
name = "beta"
`
		convey.So(Stringify(root), convey.ShouldEqual, want)
	})
}

func TestStringifyScalars(t *testing.T) {
	convey.Convey("strings are escaped, nulls fall back to empty strings", t, func() {
		root := parse.NewMap()
		root.Set("s", parse.String("line1\nline2\t\"q\""))
		root.Set("none", parse.Null())
		root.Set("odd key", parse.String("x"))

		want := "s = \"line1\\nline2\\t\\\"q\\\"\"\nnone = \"\"\n\"odd key\" = \"x\"\n"
		convey.So(Stringify(root), convey.ShouldEqual, want)
	})

	convey.Convey("mixed arrays print inline, empty tables inline too", t, func() {
		root := parse.NewMap()
		root.Set("mix", parse.NewArray(parse.Number(1), parse.String("a"), parse.Bool(false)))
		root.Set("empty", parse.NewArray())
		meta := parse.NewMap()
		root.Set("meta", meta)

		want := "mix = [1, \"a\", false]\nempty = []\n\n[meta]\n"
		convey.So(Stringify(root), convey.ShouldEqual, want)
	})

	convey.Convey("a nil or null tree stringifies to nothing", t, func() {
		convey.So(Stringify(nil), convey.ShouldEqual, "")
		convey.So(Stringify(parse.Null()), convey.ShouldEqual, "")
	})
}

func TestStringifyRoundTrip(t *testing.T) {
	convey.Convey("stringify output parses back to the same tree", t, func() {
		server := parse.NewMap()
		server.Set("host", parse.String("localhost"))
		server.Set("port", parse.Number(5432))
		server.Set("tags", parse.NewArray(parse.String("a"), parse.String("b")))

		root := parse.NewMap()
		root.Set("title", parse.String("demo"))
		root.Set("debug", parse.Bool(false))
		root.Set("server", server)

		back, err := Parse(Stringify(root), "roundtrip.toml")
		convey.So(err, convey.ShouldBeNil)
		convey.So(back, convey.ShouldResemble, root)
	})

	convey.Convey("nested tables inside array-of-tables elements round trip", t, func() {
		limits := parse.NewMap()
		limits.Set("rps", parse.Number(100))
		elem := parse.NewMap()
		elem.Set("name", parse.String("alpha"))
		elem.Set("limits", limits)
		root := parse.NewMap()
		root.Set("servers", parse.NewArray(elem))

		out := Stringify(root)
		convey.So(out, convey.ShouldEqual, "[[servers]]\nname = \"alpha\"\n\n[servers.limits]\nrps = 100\n")

		back, err := Parse(out, "roundtrip.toml")
		convey.So(err, convey.ShouldBeNil)
		convey.So(back, convey.ShouldResemble, root)
	})
}
