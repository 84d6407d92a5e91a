package subscription

import (
	"reflect"
	"testing"
)

func TestParseM3U(t *testing.T) {
	body := `#EXTM3U x-tvg-url="http://epg.example/guide.xml"
#EXTINF:-1 tvg-id="cctv1" tvg-logo="http://img.example/cctv1.png" group-title="News",CCTV-1
http://stream.example/cctv1.m3u8
#EXTVLCOPT:http-user-agent=Other
#EXTINF:-1,Plain Channel
http://stream.example/plain.m3u8

#EXTINF:-1 tvg-name="Fallback Name" group-title="Sports",
http://stream.example/unnamed.m3u8
http://stream.example/orphan.m3u8
`

	got := Parse(body)
	want := []ParsedChannel{
		{
			Name:  "CCTV-1",
			URL:   "http://stream.example/cctv1.m3u8",
			TvgID: "cctv1",
			Logo:  "http://img.example/cctv1.png",
			Group: "News",
		},
		{
			Name: "Plain Channel",
			URL:  "http://stream.example/plain.m3u8",
		},
		{
			Name:  "Fallback Name",
			URL:   "http://stream.example/unnamed.m3u8",
			Group: "Sports",
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parse mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestParseM3ULeadingBOM(t *testing.T) {
	body := "\uFEFF#EXTM3U\n#EXTINF:-1,One\nhttp://stream.example/1\n"
	got := Parse(body)
	if len(got) != 1 || got[0].Name != "One" {
		t.Fatalf("BOM-prefixed playlist not recognized as M3U: %+v", got)
	}
}

func TestParseTXT(t *testing.T) {
	body := `news,#genre#
CCTV-1,http://stream.example/cctv1
CCTV-2,http://stream.example/cctv2
# a comment line
sports,#genre#
Arena,http://stream.example/arena
broken-line-without-comma
,http://stream.example/nameless
`

	got := Parse(body)
	want := []ParsedChannel{
		{Name: "CCTV-1", URL: "http://stream.example/cctv1", Group: "News"},
		{Name: "CCTV-2", URL: "http://stream.example/cctv2", Group: "News"},
		{Name: "Arena", URL: "http://stream.example/arena", Group: "Sports"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parse mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestParseTXTKeepsAcronymGroups(t *testing.T) {
	body := "CCTV,#genre#\nCCTV-5,http://stream.example/cctv5\n"
	got := Parse(body)
	if len(got) != 1 || got[0].Group != "CCTV" {
		t.Fatalf("acronym group mangled: %+v", got)
	}
}

func TestParseEmptyBody(t *testing.T) {
	if got := Parse(""); len(got) != 0 {
		t.Fatalf("expected no channels, got %+v", got)
	}
	if got := Parse("#EXTM3U\n"); len(got) != 0 {
		t.Fatalf("expected no channels from header-only playlist, got %+v", got)
	}
}
