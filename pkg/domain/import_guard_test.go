package domain

import (
	"claimcore/testutil"
	"testing"
)

func TestDomainHasNoInternalImports(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "domain stays free of implementation packages")
}
