package utils

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	storage "github.com/supabase-community/storage-go"
)

const avatarBucket = "sirius_meets_avatars"

// UploadAvatar stores a profile picture in Supabase storage and returns
// its public URL.
func UploadAvatar(fh *multipart.FileHeader, fileID string, contentType string) (string, error) {
	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_KEY")
	if supabaseURL == "" || supabaseKey == "" {
		return "", fmt.Errorf("supabase storage is not configured")
	}

	storageClient := storage.NewClient(supabaseURL+"/storage/v1", supabaseKey, nil)

	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	if contentType == "" {
		contentType = fh.Header.Get("Content-Type")
	}

	objectPath := fmt.Sprintf("%s%s", fileID, filepath.Ext(fh.Filename))

	upsert := true
	options := storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}

	if _, err := storageClient.UploadFile(avatarBucket, objectPath, f, options); err != nil {
		return "", err
	}

	publicURL := storageClient.GetPublicUrl(avatarBucket, objectPath)
	return publicURL.SignedURL, nil
}
