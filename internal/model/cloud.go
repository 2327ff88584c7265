package model

// Instance is a compute instance in a cloud provider, normalized across
// providers.
type Instance struct {
	ID        string
	Name      string
	State     string
	Type      string
	Region    string
	PublicIP  string
	PrivateIP string
}
