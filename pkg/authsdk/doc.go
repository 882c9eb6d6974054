/*
Package authsdk is the Go client for the STREAMNEST accounts service.

It covers the public JSON API: requesting and verifying phone OTPs,
registering an account against a verified phone, logging in, and the health
probes.

	client := authsdk.NewSDKClient("http://localhost:8080")

	receipt, err := client.SendOTP(ctx, "+15551234567")
	if err != nil {
		return err
	}

	_, err = client.Register(ctx, authsdk.RegisterRequest{
		UserID:          "amy",
		Username:        "Amy",
		Email:           "amy@example.com",
		Password:        "s3cret!",
		ConfirmPassword: "s3cret!",
		Phone:           "+15551234567",
		OTP:             receipt.DevCode, // only set when the server runs in dev mode
	})

Failed calls return an *APIError carrying the HTTP status and error code, so
callers can branch with errors.As or the Is* helpers.
*/
package authsdk
