package objectstore

import "testing"

func TestPublicURL(t *testing.T) {
	cases := []struct {
		bucket, host, key string
		want              string
	}{
		{
			"anime-media", "s3.amazonaws.com",
			"naruto/seasons/1/episodes/s1_e2_segment_0001.mp4",
			"https://anime-media.s3.amazonaws.com/naruto/seasons/1/episodes/s1_e2_segment_0001.mp4",
		},
		{
			"anime-media", "s3.amazonaws.com",
			"/naruto/naruto_thumbnail.jpg",
			"https://anime-media.s3.amazonaws.com/naruto/naruto_thumbnail.jpg",
		},
	}
	for _, tc := range cases {
		if got := PublicURL(tc.bucket, tc.host, tc.key); got != tc.want {
			t.Errorf("PublicURL(%q, %q, %q) = %q, want %q", tc.bucket, tc.host, tc.key, got, tc.want)
		}
	}
}
