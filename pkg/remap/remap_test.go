package remap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konserve-app/konserve/pkg/remap"
)

func TestAdjust(t *testing.T) {
	cases := []struct {
		name     string
		original string
		home     string
		want     string
	}{
		{
			name:     "windows profile to windows home",
			original: `C:\Users\alice\Docs\f.txt`,
			home:     `C:\Users\bob`,
			want:     `C:\Users\bob\Docs\f.txt`,
		},
		{
			name:     "windows profile to unix home",
			original: `C:\Users\alice\Projects`,
			home:     "/home/bob",
			want:     "/home/bob/Projects",
		},
		{
			name:     "unix home to unix home",
			original: "/home/alice/Docs/f.txt",
			home:     "/home/bob",
			want:     "/home/bob/Docs/f.txt",
		},
		{
			name:     "macos profile",
			original: "/Users/alice/Docs/f.txt",
			home:     "/home/bob",
			want:     "/home/bob/Docs/f.txt",
		},
		{
			name:     "shared path untouched",
			original: "/opt/shared/data.bin",
			home:     `C:\Users\bob`,
			want:     "/opt/shared/data.bin",
		},
		{
			name:     "system drive path untouched",
			original: `C:\Windows\system32\hosts`,
			home:     `C:\Users\bob`,
			want:     `C:\Windows\system32\hosts`,
		},
		{
			name:     "profile root itself maps to home",
			original: `C:\Users\alice`,
			home:     "/home/bob",
			want:     "/home/bob",
		},
		{
			name:     "relative path untouched",
			original: "Projects/x.txt",
			home:     "/home/bob",
			want:     "Projects/x.txt",
		},
		{
			name:     "users segment case-insensitive on windows",
			original: `c:\users\alice\f.txt`,
			home:     `C:\Users\bob`,
			want:     `C:\Users\bob\f.txt`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, remap.Adjust(tc.original, tc.home))
		})
	}
}
