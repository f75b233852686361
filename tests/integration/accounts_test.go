//go:build integration

package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	resp := doRequest(t, http.MethodPost, "/accounts/create", "", credentialSet{
		DisplayName: "fresh-user",
		Password:    "a-long-enough-password",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if msg := decodeJSON[infoResponse](t, resp).Msg; !strings.Contains(msg, "fresh-user") {
		t.Errorf("expected message to name the account, got %q", msg)
	}

	auth := doRequest(t, http.MethodPost, "/accounts/authenticate", "", credentialSet{
		DisplayName: "fresh-user",
		Password:    "a-long-enough-password",
	})
	defer auth.Body.Close()

	if auth.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", auth.StatusCode)
	}
	token := decodeJSON[authToken](t, auth)
	if token.Presenter != "fresh-user" || token.Token == "" {
		t.Fatalf("unexpected token response: %+v", token)
	}
}

func TestRegister_TakenName(t *testing.T) {
	// hannah comes from the seed fixtures.
	resp := doRequest(t, http.MethodPost, "/accounts/create", "", credentialSet{
		DisplayName: "hannah",
		Password:    "whatever-password",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestAuthenticate_BadCredentials(t *testing.T) {
	for _, creds := range []credentialSet{
		{DisplayName: "hannah", Password: "definitely-wrong"},
		{DisplayName: "no-such-user", Password: "definitely-wrong"},
	} {
		resp := doRequest(t, http.MethodPost, "/accounts/authenticate", "", creds)

		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", creds.DisplayName, resp.StatusCode)
		}
		body := decodeJSON[errorResponse](t, resp)
		resp.Body.Close()

		if body.ErrMsg != "Invalid display name or password" {
			t.Errorf("%s: unexpected error message %q", creds.DisplayName, body.ErrMsg)
		}
	}
}

func TestFetchProfile(t *testing.T) {
	token := login(t, "profile-owner", "a-long-enough-password")

	resp := doRequest(t, http.MethodGet, "/accounts/profile-owner/profile", token, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	profile := decodeJSON[profileResponse](t, resp)
	if !strings.Contains(profile.AvatarURL, "avatars/profile-owner") {
		t.Errorf("avatar URL does not reference the avatar object: %q", profile.AvatarURL)
	}

	t.Run("without token", func(t *testing.T) {
		resp := doGet(t, "/accounts/profile-owner/profile")
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("foreign token", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, "/accounts/hannah/profile", token, nil)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})
}

func TestAvatarUploadLink(t *testing.T) {
	token := login(t, "avatar-owner", "a-long-enough-password")

	resp := doRequest(t, http.MethodGet, "/accounts/avatar-owner/avatar/upload", token, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	upload := decodeJSON[uploadResponse](t, resp)
	if !strings.Contains(upload.URL, "avatars/avatar-owner") {
		t.Errorf("upload URL does not reference the avatar object: %q", upload.URL)
	}
	if !strings.Contains(upload.URL, "X-Amz-Signature") {
		t.Errorf("upload URL is not presigned: %q", upload.URL)
	}
}
