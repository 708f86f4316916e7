package storage

import "testing"

func TestSplitURI(t *testing.T) {
	tests := []struct {
		uri     string
		bucket  string
		object  string
		wantErr bool
	}{
		{uri: "gs://vouchers/2024/deposito.pdf", bucket: "vouchers", object: "2024/deposito.pdf"},
		{uri: "gs://vouchers/file.jpg", bucket: "vouchers", object: "file.jpg"},
		{uri: "gs://vouchers", wantErr: true},
		{uri: "gs://vouchers/", wantErr: true},
		{uri: "http://example.com/file.pdf", wantErr: true},
		{uri: "", wantErr: true},
	}

	for _, tt := range tests {
		bucket, object, err := splitURI(tt.uri)
		if tt.wantErr {
			if err == nil {
				t.Errorf("splitURI(%q): expected error", tt.uri)
			}
			continue
		}
		if err != nil {
			t.Errorf("splitURI(%q): %v", tt.uri, err)
			continue
		}
		if bucket != tt.bucket || object != tt.object {
			t.Errorf("splitURI(%q) = %q, %q; want %q, %q", tt.uri, bucket, object, tt.bucket, tt.object)
		}
	}
}

func TestFilenameFromURI(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"gs://bucket/folder/file.pdf", "file.pdf"},
		{"gs://bucket/file.jpg", "file.jpg"},
		{"gs://bucket", "bucket"},
	}

	for _, tt := range tests {
		if got := FilenameFromURI(tt.uri); got != tt.want {
			t.Errorf("FilenameFromURI(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}
