package toml

import (
	"math"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/dzjyyds666/cq/parse"
)

func TestTableHeaders(t *testing.T) {
	convey.Convey("dotted headers open nested tables", t, func() {
		src := "[database.primary]\nhost = \"localhost\"\n[database.replica]\nhost = \"replica.local\""
		root, err := Parse(src, "test.toml")
		convey.So(err, convey.ShouldBeNil)
		h1, ok := parse.Get(root, "database", "primary", "host")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(parse.MustString(h1), convey.ShouldEqual, "localhost")
		h2, _ := parse.Get(root, "database", "replica", "host")
		convey.So(parse.MustString(h2), convey.ShouldEqual, "replica.local")
	})

	convey.Convey("re-opening a table is allowed", t, func() {
		src := `
[server]
host = "a"

[other]
x = 1

[server]
port = 80
`
		root, err := Parse(src, "test.toml")
		convey.So(err, convey.ShouldBeNil)
		host, _ := parse.Get(root, "server", "host")
		convey.So(parse.MustString(host), convey.ShouldEqual, "a")
		port, _ := parse.Get(root, "server", "port")
		convey.So(parse.MustInt(port), convey.ShouldEqual, 80)
	})

	convey.Convey("a header colliding with a scalar is an error", t, func() {
		_, err := Parse("a = 1\n[a]\nx = 2", "test.toml")
		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldContainSubstring, "non-table value")
	})

	convey.Convey("a missing closing bracket names the source", t, func() {
		_, err := Parse("[invalid section", "bad.toml")
		convey.So(err, convey.ShouldNotBeNil)
		pe := err.(*parse.Error)
		convey.So(pe.File, convey.ShouldEqual, "bad.toml")
		convey.So(pe.Message, convey.ShouldContainSubstring, "missing closing bracket")
	})
}

func TestArrayOfTables(t *testing.T) {
	convey.Convey("array of tables", t, func() {
		src := `
[[products]]
name = "Hammer"
sku = 738594937

[[products]]
name = "Nails"
sku = 284758393
count = 100
`
		root, err := Parse(src, "test.toml")
		convey.So(err, convey.ShouldBeNil)
		n, ok := parse.Get(root, "products")
		convey.So(ok, convey.ShouldBeTrue)
		arr := n.(*parse.Array)
		convey.So(len(arr.Elems), convey.ShouldEqual, 2)
		name, _ := parse.Get(arr.Elems[0], "name")
		convey.So(parse.MustString(name), convey.ShouldEqual, "Hammer")
		count, _ := parse.Get(arr.Elems[1], "count")
		convey.So(parse.MustInt(count), convey.ShouldEqual, 100)
	})

	convey.Convey("a sub-table header lands in the most recent element", t, func() {
		src := `
[[fruit]]
name = "apple"

[fruit.physical]
color = "red"

[[fruit]]
name = "banana"
`
		root, err := Parse(src, "test.toml")
		convey.So(err, convey.ShouldBeNil)
		color, ok := parse.Get(root, "fruit", "0", "physical", "color")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(parse.MustString(color), convey.ShouldEqual, "red")
		name, _ := parse.Get(root, "fruit", "1", "name")
		convey.So(parse.MustString(name), convey.ShouldEqual, "banana")
	})

	convey.Convey("a sub-table header under a scalar array is an error", t, func() {
		_, err := Parse("a = [1, 2]\n[a.b]\nx = 1", "test.toml")
		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldContainSubstring, "non-table value")
	})

	convey.Convey("repeated headers append in order", t, func() {
		src := "[[servers]]\nname = \"alpha\"\n[[servers]]\nname = \"beta\""
		root, err := Parse(src, "test.toml")
		convey.So(err, convey.ShouldBeNil)
		second, ok := parse.Get(root, "servers", "1", "name")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(parse.MustString(second), convey.ShouldEqual, "beta")
	})
}

func TestInlineTable(t *testing.T) {
	convey.Convey("inline table", t, func() {
		src := `owner = { name = "Tom", dob = 1979-05-27T07:32:00Z }`
		root, err := Parse(src, "test.toml")
		convey.So(err, convey.ShouldBeNil)
		name, ok := parse.Get(root, "owner", "name")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(parse.MustString(name), convey.ShouldEqual, "Tom")
		dob, _ := parse.Get(root, "owner", "dob")
		convey.So(parse.MustString(dob), convey.ShouldEqual, "1979-05-27T07:32:00Z")
	})

	convey.Convey("an inline table left open is an error", t, func() {
		_, err := Parse(`owner = { name = "Tom"`, "test.toml")
		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldContainSubstring, "missing closing brace")
	})
}

func TestStringStyles(t *testing.T) {
	convey.Convey("multiline basic string", t, func() {
		src := `desc = """first
second
third"""`
		root, err := Parse(src, "test.toml")
		convey.So(err, convey.ShouldBeNil)
		desc, _ := parse.Get(root, "desc")
		convey.So(parse.MustString(desc), convey.ShouldEqual, "first\nsecond\nthird")
	})

	convey.Convey("literal strings keep backslashes", t, func() {
		src := `path = 'C:\Users\tom'`
		root, err := Parse(src, "test.toml")
		convey.So(err, convey.ShouldBeNil)
		path, _ := parse.Get(root, "path")
		convey.So(parse.MustString(path), convey.ShouldEqual, `C:\Users\tom`)
	})

	convey.Convey("multiline literal string is verbatim", t, func() {
		src := "raw = '''a \\n\nb'''"
		root, err := Parse(src, "test.toml")
		convey.So(err, convey.ShouldBeNil)
		raw, _ := parse.Get(root, "raw")
		convey.So(parse.MustString(raw), convey.ShouldEqual, "a \\n\nb")
	})

	convey.Convey("unterminated string is an error", t, func() {
		_, err := Parse(`s = "abc`, "test.toml")
		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldContainSubstring, "unterminated")
	})
}

func TestQuotedKeys(t *testing.T) {
	convey.Convey("quoted keys", t, func() {
		src := `"a.b" = 1
a.c = 2`
		root, err := Parse(src, "test.toml")
		convey.So(err, convey.ShouldBeNil)
		n, ok := parse.Get(root, "a.b")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(parse.MustInt(n), convey.ShouldEqual, 1)
		n2, ok2 := parse.Get(root, "a", "c")
		convey.So(ok2, convey.ShouldBeTrue)
		convey.So(parse.MustInt(n2), convey.ShouldEqual, 2)
	})

	convey.Convey("an empty quoted key is allowed", t, func() {
		root, err := Parse(`"" = 1`, "test.toml")
		convey.So(err, convey.ShouldBeNil)
		n, ok := root.Get("")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(parse.MustInt(n), convey.ShouldEqual, 1)
	})

	convey.Convey("empty bare key segments are errors", t, func() {
		_, err := Parse("a..b = 1", "test.toml")
		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldContainSubstring, "empty key segment")

		_, err = Parse("a. = 1", "test.toml")
		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldContainSubstring, "empty key segment")

		_, err = Parse("[a..b]\nx = 1", "test.toml")
		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldContainSubstring, "empty key segment")
	})
}

func TestNumbersAndBooleans(t *testing.T) {
	convey.Convey("floats and ints with underscores and bases", t, func() {
		src := `
f1 = +inf
f2 = -inf
f3 = nan
i1 = 1_000
hex = 0xDEADBEEF
oct = 0o755
bin = 0b1010
neg = -42
exp = 1e3
`
		root, err := Parse(src, "test.toml")
		convey.So(err, convey.ShouldBeNil)
		f1, _ := parse.Get(root, "f1")
		convey.So(parse.MustFloat(f1), convey.ShouldEqual, math.Inf(+1))
		f2, _ := parse.Get(root, "f2")
		convey.So(parse.MustFloat(f2), convey.ShouldEqual, math.Inf(-1))
		f3, _ := parse.Get(root, "f3")
		convey.So(math.IsNaN(parse.MustFloat(f3)), convey.ShouldBeTrue)
		i1, _ := parse.Get(root, "i1")
		convey.So(parse.MustInt(i1), convey.ShouldEqual, 1000)
		hex, _ := parse.Get(root, "hex")
		convey.So(parse.MustInt(hex), convey.ShouldEqual, 0xDEADBEEF)
		oct, _ := parse.Get(root, "oct")
		convey.So(parse.MustInt(oct), convey.ShouldEqual, 0o755)
		bin, _ := parse.Get(root, "bin")
		convey.So(parse.MustInt(bin), convey.ShouldEqual, 10)
		neg, _ := parse.Get(root, "neg")
		convey.So(parse.MustInt(neg), convey.ShouldEqual, -42)
		exp, _ := parse.Get(root, "exp")
		convey.So(parse.MustFloat(exp), convey.ShouldEqual, 1000.0)
	})

	convey.Convey("booleans are lowercase only, unlike plain-scalar coercion", t, func() {
		root, err := Parse("ok = true", "test.toml")
		convey.So(err, convey.ShouldBeNil)
		ok, _ := parse.Get(root, "ok")
		convey.So(parse.MustBool(ok), convey.ShouldBeTrue)

		convey.So(parse.Coerce("TRUE"), convey.ShouldResemble, parse.Bool(true))
		_, err = Parse("bad = TRUE", "test.toml")
		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldContainSubstring, "unrecognized value")
	})
}

func TestMultilineArray(t *testing.T) {
	convey.Convey("multiline array with trailing comma", t, func() {
		src := `
ports = [
  8001,
  8002,
]
`
		root, err := Parse(src, "test.toml")
		convey.So(err, convey.ShouldBeNil)
		first, ok := parse.Get(root, "ports", "0")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(parse.MustInt(first), convey.ShouldEqual, 8001)
		second, _ := parse.Get(root, "ports", "1")
		convey.So(parse.MustInt(second), convey.ShouldEqual, 8002)
	})

	convey.Convey("an array left open is an error", t, func() {
		_, err := Parse("ports = [1, 2", "test.toml")
		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldContainSubstring, "missing closing bracket")
	})
}

func TestMergeFriendlyAssignment(t *testing.T) {
	convey.Convey("duplicate keys are last-write-wins", t, func() {
		root, err := Parse("a = 1\na = 2", "test.toml")
		convey.So(err, convey.ShouldBeNil)
		a, _ := parse.Get(root, "a")
		convey.So(parse.MustInt(a), convey.ShouldEqual, 2)
	})
}

func TestDocumentShape(t *testing.T) {
	convey.Convey("empty input parses to an empty table", t, func() {
		root, err := Parse("", "test.toml")
		convey.So(err, convey.ShouldBeNil)
		convey.So(root.Len(), convey.ShouldEqual, 0)
	})

	convey.Convey("a bare word line is an error", t, func() {
		_, err := Parse("not a toml line", "test.toml")
		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldContainSubstring, "neither a key-value pair nor a table header")
	})
}

func TestMaxDepth(t *testing.T) {
	convey.Convey("deep array nesting fails instead of overflowing", t, func() {
		src := "deep = " + strings.Repeat("[", 1100) + strings.Repeat("]", 1100)
		_, err := Parse(src, "test.toml")
		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldContainSubstring, "maximum nesting depth exceeded")
	})
}
