//go:build !unix

package archive

func setExecutable(string) error {
	return nil
}
