package analytics

import (
	"reflect"
	"testing"
)

func TestTopReferrers(t *testing.T) {
	t.Run("five sources collapse into top three plus other", func(t *testing.T) {
		in := []Referrer{
			{Name: "newsletter", Value: 120},
			{Name: "twitter", Value: 45},
			{Name: "blog", Value: 300},
			{Name: "podcast", Value: 15},
			{Name: "affiliate", Value: 80},
		}
		got := TopReferrers(in, 3)

		want := []Referrer{
			{Name: "blog", Value: 300},
			{Name: "newsletter", Value: 120},
			{Name: "affiliate", Value: 80},
			{Name: OtherLabel, Value: 60},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("three or fewer keep no other bucket", func(t *testing.T) {
		in := []Referrer{
			{Name: "blog", Value: 10},
			{Name: "twitter", Value: 30},
		}
		got := TopReferrers(in, 3)

		want := []Referrer{
			{Name: "twitter", Value: 30},
			{Name: "blog", Value: 10},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %+v, want %+v", got, want)
		}
		for _, r := range got {
			if r.Name == OtherLabel {
				t.Error("no aggregate bucket expected")
			}
		}
	})

	t.Run("exactly the cap keeps no other bucket", func(t *testing.T) {
		in := []Referrer{{Name: "a", Value: 1}, {Name: "b", Value: 2}, {Name: "c", Value: 3}}
		got := TopReferrers(in, 3)
		if len(got) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(got))
		}
	})

	t.Run("non-positive cap uses default", func(t *testing.T) {
		in := []Referrer{
			{Name: "a", Value: 5}, {Name: "b", Value: 4}, {Name: "c", Value: 3},
			{Name: "d", Value: 2}, {Name: "e", Value: 1},
		}
		got := TopReferrers(in, 0)
		if len(got) != 4 {
			t.Fatalf("expected top 3 plus other, got %d entries", len(got))
		}
		if got[3].Name != OtherLabel || got[3].Value != 3 {
			t.Errorf("unexpected aggregate %+v", got[3])
		}
	})

	t.Run("input untouched", func(t *testing.T) {
		in := []Referrer{{Name: "b", Value: 1}, {Name: "a", Value: 2}}
		_ = TopReferrers(in, 1)
		if in[0].Name != "b" {
			t.Error("input slice must not be reordered")
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := TopReferrers(nil, 3); len(got) != 0 {
			t.Errorf("expected empty result, got %+v", got)
		}
	})
}
