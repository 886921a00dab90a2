package gcp

import (
	"errors"
	"io"
	"testing"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestDownloadURL(t *testing.T) {
	t.Parallel()
	got := DownloadURL("homelift.appspot.com", "hcp_profile_pictures/ab12_my photo.png", "tok-1")
	want := "https://firebasestorage.googleapis.com/v0/b/homelift.appspot.com/o/hcp_profile_pictures%2Fab12_my%20photo.png?alt=media&token=tok-1"
	if got != want {
		t.Fatalf("DownloadURL=\n%s\nwant\n%s", got, want)
	}
	if got := DownloadURL("b", "k", ""); got != "https://firebasestorage.googleapis.com/v0/b/b/o/k?alt=media" {
		t.Fatalf("tokenless URL=%s", got)
	}
}

func TestRemoteError(t *testing.T) {
	t.Parallel()

	grpcErr := status.Error(codes.PermissionDenied, "Missing or insufficient permissions.")
	err := remoteError("merge", grpcErr)
	if err.Error() != "Missing or insufficient permissions." {
		t.Fatalf("grpc message=%q", err.Error())
	}

	apiErr := &googleapi.Error{Code: 403, Message: "caller does not have storage.objects.create access"}
	err = remoteError("put", apiErr)
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Code != 403 || remote.Op != "put" {
		t.Fatalf("err=%#v", err)
	}
	if !errors.Is(err, apiErr) {
		t.Fatalf("RemoteError must unwrap to the cause")
	}

	if remoteError("x", nil) != nil {
		t.Fatalf("nil error must stay nil")
	}
	if err := remoteError("x", io.ErrUnexpectedEOF); err != io.ErrUnexpectedEOF {
		t.Fatalf("plain errors pass through, got %v", err)
	}
}
