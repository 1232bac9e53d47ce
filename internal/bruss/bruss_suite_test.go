package bruss_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestBruss(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Brusselator Suite")
}
