package ldd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLoaderOutput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "path is available",
			input: "libpthread.so.0 => /lib64/libpthread.so.0 (0x00007f70f6c10000)",
			want:  []string{"/lib64/libpthread.so.0"},
		},
		{
			name:  "path is a memory address",
			input: "linux-vdso.so.1 => (0x00007fdf495cd000)",
		},
		{
			name:  "path is unavailable",
			input: "linux-vdso.so.1 =>  (0x00007fffd33f2000)",
		},
		{
			name:  "path starts with a parenthesis",
			input: "libfoo.so.1 => (deleted) (0x00007fdf49524000)",
		},
		{
			name:  "name equals path",
			input: "/lib64/ld-linux-x86-64.so.2 => /lib64/ld-linux-x86-64.so.2 (0x00007f70f7a61000)",
		},
		{
			name:  "arrow is not exact",
			input: "libc.so.6 -> /lib64/libc.so.6 (0x00007f70f684f000)",
		},
		{
			name:  "arrow with extra characters",
			input: "libc.so.6 ==> /lib64/libc.so.6 (0x00007f70f684f000)",
		},
		{
			name:  "loader self entry has no arrow",
			input: "/lib64/ld-linux-x86-64.so.2 (0x00007f70f7a61000)",
		},
		{
			name:  "too many fields",
			input: "libc.so.6 => /lib64/libc.so.6 (0x00007f70f684f000) extra",
		},
		{
			name:  "library not found",
			input: "libmissing.so.3 => not found",
		},
		{
			name:  "tab indented as printed by glibc",
			input: "\tlibm.so.6 => /lib/x86_64-linux-gnu/libm.so.6 (0x00007f1c2b0e0000)\n",
			want:  []string{"/lib/x86_64-linux-gnu/libm.so.6"},
		},
		{
			name:  "very long path",
			input: "libpcre2-8.so.0 => /nix/store/nalqwq0dpzqnp4nfv25370cb17q3wx4j-pcre2-10.44/lib/libpcre2-8.so.0 (0x00007fdf49524000)",
			want:  []string{"/nix/store/nalqwq0dpzqnp4nfv25370cb17q3wx4j-pcre2-10.44/lib/libpcre2-8.so.0"},
		},
		{
			name:  "empty output",
			input: "",
		},
		{
			name: "many paths",
			input: `        linux-vdso.so.1 =>  (0x00007fffd33f2000)
        libdl.so.2 => /lib64/libdl.so.2 (0x00007f70f7855000)
        librt.so.1 => /lib64/librt.so.1 (0x00007f70f764d000)
        libstdc++.so.6 => /lib64/libstdc++.so.6 (0x00007f70f7345000)
        libm.so.6 => /lib64/libm.so.6 (0x00007f70f7043000)
        libgcc_s.so.1 => /lib64/libgcc_s.so.1 (0x00007f70f6e2d000)
        libpthread.so.0 => /lib64/libpthread.so.0 (0x00007f70f6c10000)
        libc.so.6 => /lib64/libc.so.6 (0x00007f70f684f000)
        /lib64/ld-linux-x86-64.so.2 (0x00007f70f7a61000)
`,
			want: []string{
				"/lib64/libdl.so.2",
				"/lib64/librt.so.1",
				"/lib64/libstdc++.so.6",
				"/lib64/libm.so.6",
				"/lib64/libgcc_s.so.1",
				"/lib64/libpthread.so.0",
				"/lib64/libc.so.6",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLoaderOutput(tt.input))
		})
	}
}

func TestMissingLibraries(t *testing.T) {
	output := "\tlibc.so.6 => /lib64/libc.so.6 (0x00007f70f684f000)\n" +
		"\tlibfoo.so.1 => not found\n" +
		"\tlibbar.so.2 => not found\n"

	assert.Equal(t, []string{"libfoo.so.1", "libbar.so.2"}, MissingLibraries(output))
	assert.Empty(t, MissingLibraries("\tlibc.so.6 => /lib64/libc.so.6 (0x00007f70f684f000)\n"))
}
