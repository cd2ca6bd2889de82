package main

import (
	"os"

	gosf "github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
	"github.com/sells-group/leadgen-cli/pkg/hubspot"
	"github.com/sells-group/leadgen-cli/pkg/hunter"
	"github.com/sells-group/leadgen-cli/pkg/salesforce"
)

func newSearchClient() (apollo.Client, error) {
	if cfg.Apollo.Key == "" {
		return nil, eris.New("apollo API key is required (LEADGEN_APOLLO_KEY)")
	}
	opts := []apollo.Option{apollo.WithRateLimit(cfg.Apollo.RatePerSec)}
	if cfg.Apollo.BaseURL != "" {
		opts = append(opts, apollo.WithBaseURL(cfg.Apollo.BaseURL))
	}
	return apollo.NewClient(cfg.Apollo.Key, opts...), nil
}

func newVerifier() (hunter.Client, error) {
	if cfg.Hunter.Key == "" {
		return nil, eris.New("hunter API key is required for --verify (LEADGEN_HUNTER_KEY)")
	}
	opts := []hunter.Option{hunter.WithRateLimit(cfg.Hunter.RatePerSec)}
	if cfg.Hunter.BaseURL != "" {
		opts = append(opts, hunter.WithBaseURL(cfg.Hunter.BaseURL))
	}
	return hunter.NewClient(cfg.Hunter.Key, opts...), nil
}

func newHubSpotClient() (hubspot.Client, error) {
	if cfg.HubSpot.Key == "" {
		return nil, eris.New("hubspot API key is required for --push (LEADGEN_HUBSPOT_KEY)")
	}
	opts := []hubspot.Option{hubspot.WithRateLimit(cfg.HubSpot.RatePerSec)}
	if cfg.HubSpot.BaseURL != "" {
		opts = append(opts, hubspot.WithBaseURL(cfg.HubSpot.BaseURL))
	}
	return hubspot.NewClient(cfg.HubSpot.Key, opts...), nil
}

func newCRMSink() (pipeline.Sink, error) {
	switch cfg.CRM.Provider {
	case "hubspot":
		client, err := newHubSpotClient()
		if err != nil {
			return nil, err
		}
		return pipeline.NewHubSpotSink(client), nil
	case "salesforce":
		sfClient, err := initSalesforce()
		if err != nil {
			return nil, err
		}
		return pipeline.NewSalesforceSink(sfClient), nil
	default:
		return nil, eris.Errorf("unsupported crm provider: %s", cfg.CRM.Provider)
	}
}

func initSalesforce() (salesforce.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (LEADGEN_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := gosf.Init(gosf.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return salesforce.NewClient(sf, salesforce.WithRateLimit(cfg.Salesforce.RatePerSec)), nil
}

// newPipeline wires the pipeline for a run, creating only the clients the
// requested stages need.
func newPipeline(opts pipeline.Options) (*pipeline.Pipeline, error) {
	search, err := newSearchClient()
	if err != nil {
		return nil, err
	}

	var verifier hunter.Client
	if opts.Verify {
		if verifier, err = newVerifier(); err != nil {
			return nil, err
		}
	}

	var sink pipeline.Sink
	if opts.Push {
		if sink, err = newCRMSink(); err != nil {
			return nil, err
		}
	}

	return pipeline.New(pipeline.Config{
		Retry:       cfg.Pipeline.RetryPolicy(),
		Concurrency: cfg.Pipeline.Concurrency,
	}, search, verifier, sink), nil
}
