package pkg

import "os"

// CheckFileExist reports whether the file exists.
func CheckFileExist(filePath string) (bool, error) {
	_, err := os.Lstat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ReadFileContent reads the whole file as a string.
func ReadFileContent(filePath string) (string, error) {
	b, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteFileContent writes content to filePath, creating it if needed.
func WriteFileContent(filePath string, content string) error {
	return os.WriteFile(filePath, []byte(content), 0644)
}
