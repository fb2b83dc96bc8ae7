package cli

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"

	testkittls "github.com/getmockd/testkit/pkg/tls"
)

// certFlags holds all flags for the cert command.
type certFlags struct {
	certPath string
	keyPath  string
	cn       string
	hosts    []string
	validFor time.Duration
}

// certFlagVals is the package-level instance bound to cobra flags.
var certFlagVals certFlags

var certCmd = &cobra.Command{
	Use:   "cert",
	Short: "Generate a self-signed certificate for serving HTTPS",
	Long: `Cert writes a self-signed certificate and private key pair, the same
kind the server generates in memory for --tls. Use it when a fixed pair
is needed across runs, for example to pin trust in client containers.`,
	Example: `  # Certificate for localhost, one year of validity
  testkit cert --cert server.crt --key server.key

  # Cover extra hostnames and addresses
  testkit cert --cert server.crt --key server.key --cn api.test --hosts api.test,10.0.0.5`,
	RunE: runCert,
}

func init() {
	f := &certFlagVals

	certCmd.Flags().StringVar(&f.certPath, "cert", "", "Path to write the certificate PEM [required]")
	certCmd.Flags().StringVar(&f.keyPath, "key", "", "Path to write the private key PEM [required]")
	certCmd.Flags().StringVar(&f.cn, "cn", "localhost", "Certificate common name")
	certCmd.Flags().StringSliceVar(&f.hosts, "hosts", nil, "Extra hostnames and IPs to cover (comma-separated)")
	certCmd.Flags().DurationVar(&f.validFor, "valid-for", 365*24*time.Hour, "Validity duration")

	_ = certCmd.MarkFlagRequired("cert")
	_ = certCmd.MarkFlagRequired("key")

	rootCmd.AddCommand(certCmd)
}

func runCert(_ *cobra.Command, _ []string) error {
	f := &certFlagVals

	cfg := testkittls.DefaultCertificateConfig()
	cfg.CommonName = f.cn
	cfg.ValidFor = f.validFor

	// The CN is always covered. Extra hosts split into DNS names and
	// IP addresses by whether they parse as an address.
	if !containsFold(cfg.DNSNames, f.cn) {
		cfg.DNSNames = append(cfg.DNSNames, f.cn)
	}
	for _, h := range f.hosts {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if ip := net.ParseIP(h); ip != nil {
			cfg.IPAddresses = append(cfg.IPAddresses, ip)
			continue
		}
		if !containsFold(cfg.DNSNames, h) {
			cfg.DNSNames = append(cfg.DNSNames, h)
		}
	}

	cert, err := testkittls.GenerateAndSave(cfg, f.certPath, f.keyPath)
	if err != nil {
		return fmt.Errorf("failed to generate certificate: %w", err)
	}

	info := testkittls.GetCertificateInfo(cert.Certificate)
	fmt.Printf("Certificate generated:\n")
	fmt.Printf("  Certificate: %s\n", f.certPath)
	fmt.Printf("  Private key: %s\n", f.keyPath)
	fmt.Printf("  Subject:     %s\n", info.Subject)
	fmt.Printf("  DNS names:   %s\n", strings.Join(info.DNSNames, ", "))
	if len(info.IPAddresses) > 0 {
		fmt.Printf("  IPs:         %s\n", strings.Join(info.IPAddresses, ", "))
	}
	fmt.Printf("  Valid until: %s\n", info.NotAfter)

	return nil
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
