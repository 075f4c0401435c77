package planner

import (
	"fmt"
	"strings"
)

// defaultDLCAccount hosts the Deep Learning Containers in most commercial regions
const defaultDLCAccount = "763104351884"

// Regions that publish the Deep Learning Containers from their own account.
var dlcAccounts = map[string]string{
	"af-south-1":     "626614931356",
	"ap-east-1":      "871362719292",
	"ap-southeast-3": "907027046896",
	"eu-south-1":     "692866216735",
	"il-central-1":   "780543022126",
	"me-central-1":   "914824155844",
	"me-south-1":     "217643126080",
	"cn-north-1":     "727897471807",
	"cn-northwest-1": "727897471807",
	"us-gov-east-1":  "446045086412",
	"us-gov-west-1":  "442386744353",
}

// RegistryHost returns the ECR registry host serving Deep Learning Containers in region.
func RegistryHost(region string) string {
	account, ok := dlcAccounts[region]
	if !ok {
		account = defaultDLCAccount
	}
	hostname := "amazonaws.com"
	if strings.HasPrefix(region, "cn-") {
		hostname = "amazonaws.com.cn"
	}
	return fmt.Sprintf("%s.dkr.ecr.%s.%s", account, region, hostname)
}

// ImageURI resolves a repository and tag to a pullable image reference. Whether the
// tag exists is only known to the registry; a bad tag surfaces at submission time.
func ImageURI(repoName, tag, region string) string {
	return fmt.Sprintf("%s/%s:%s", RegistryHost(region), repoName, tag)
}
